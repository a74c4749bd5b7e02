package houdini

// ProgramAST is the external collaborator the apply-assignment
// transformation rewrites (SPEC_FULL §6, "Program AST collaborator
// interface (consumed)"): enumerate constants, read/write attributes,
// and rewrite guarded conditions.
type ProgramAST interface {
	// RewriteGuardedTrue replaces a candidate-guarded assertion
	// `candidate => phi` with the assumption `phi[candidate := true]`,
	// and rewrites matching pre/post-conditions to free with candidate
	// replaced by true.
	RewriteGuardedTrue(candidate string)
	// RemoveGuardedAssertions deletes every assertion guarded by
	// candidate outright; pre/post-conditions are left in place (they
	// become vacuously true).
	RemoveGuardedAssertions(candidate string)
	// RemoveExistentialConstant deletes candidate from the program's
	// top-level declarations.
	RemoveExistentialConstant(candidate string)
}

// ApplyAssignment performs the post-inference AST transformation of
// SPEC_FULL §4.F: for every candidate, rewrite or remove its guarded
// conditions according to its final truth value, then strip the
// existential declarations entirely.
func ApplyAssignment(ast ProgramAST, assignment Assignment) {
	for candidate, value := range assignment {
		if value {
			ast.RewriteGuardedTrue(candidate)
		} else {
			ast.RemoveGuardedAssertions(candidate)
		}
	}
	for candidate := range assignment {
		ast.RemoveExistentialConstant(candidate)
	}
}
