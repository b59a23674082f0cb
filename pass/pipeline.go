package pass

// pipeline.go assembles the default optimization pipeline and registers
// every pass with the process-wide registry: a simplification compound
// reused at several points in capped variants, interleaved with DCE,
// wrapped in fixed points, ending in the proc- and label-specific tail.

func simplificationCompound(name string, optLevel int) *CompoundPass {
	c := NewCompoundPass(name, "simplification passes")
	dce := NewDeadCodeEliminationPass()
	add := func(p Pass) {
		c.Add(p)
		c.Add(dce)
	}
	add(NewIdentityRemovalPass())
	add(NewConstantFoldingPass())
	add(NewCanonicalizationPass())
	add(NewArithSimplificationPass(optLevel))
	add(NewBitSliceSimplificationPass(optLevel))
	add(NewConcatSimplificationPass(optLevel))
	add(NewSelectSimplificationPass(optLevel))
	add(NewBooleanSimplificationPass())
	add(NewTableSwitchPass())
	add(NewReassociationPass())
	add(NewStrengthReductionPass(optLevel))
	add(NewArraySimplificationPass(optLevel))
	add(NewCsePass())
	add(NewNarrowingPass(AnalysisTernary, optLevel))
	return c
}

func fixedPointSimplification(name string, optLevel int) *FixedPointCompoundPass {
	fp := NewFixedPointCompoundPass(name, "fixed-point simplification")
	fp.Add(simplificationCompound(name+".body", optLevel))
	return fp
}

// DefaultPipeline builds the full top-level optimization pipeline at the
// given optimization level (0 disables everything past DFE/DCE; 3 is full
// optimization).
func DefaultPipeline(optLevel int) *CompoundPass {
	top := NewCompoundPass("ir", "default optimization pipeline")
	top.AddInvariantChecker(VerifierChecker{})

	// 1. Dead-function elimination, dead-code elimination.
	top.Add(NewDeadFunctionEliminationPass())
	top.Add(NewDeadCodeEliminationPass())

	if optLevel <= 0 {
		return top
	}

	// 2. Simplification (capped at opt-level 2), each step already
	// interleaved with DCE inside simplificationCompound.
	top.Add(simplificationCompound("simp", capLevel(optLevel, 2)))

	// 3. Unrolling, map-inlining, function-inlining, DFE.
	top.Add(NewUnrollPass())
	top.Add(NewMapInliningPass())
	top.Add(NewInliningPass())
	top.Add(NewDeadFunctionEliminationPass())

	// 4. Fixed-point simplification (capped at opt-level 2).
	top.Add(fixedPointSimplification("fixedpoint_simp", capLevel(optLevel, 2)))

	// 5. BDD simplification + BDD-CSE + conditional specialization.
	top.Add(NewBddSimplificationPass())
	top.Add(NewBddCsePass())
	top.Add(NewConditionalSpecializationPass(true))

	// 6. Narrowing with range+context analysis, full opt-level.
	top.Add(NewNarrowingPass(AnalysisRangeWithContext, optLevel))

	// 7. Useless-assert/IO removal, RAM rewrite.
	top.Add(NewUselessAssertRemovalPass())
	top.Add(NewUselessIORemovalPass())
	top.Add(NewRamRewritePass())

	// 8. Channel legalization -> token-dependency -> fixed-point simp ->
	// proc inlining.
	top.Add(NewChannelLegalizationPass())
	top.Add(NewTokenDependencyPass())
	top.Add(fixedPointSimplification("fixedpoint_simp.2", capLevel(optLevel, 2)))
	top.Add(NewProcInliningPass())

	// 9. Proc-state flattening -> identity removal -> dataflow simp ->
	// next-value optimization (capped at opt-level 3) -> proc-state
	// optimization.
	top.Add(NewProcStateFlatteningPass())
	top.Add(NewIdentityRemovalPass())
	top.Add(NewDataflowSimplificationPass())
	top.Add(NewNextValueOptimizationPass(capLevel(optLevel, 3)))
	top.Add(NewProcStateOptimizationPass())

	// 10. Second round of BDD/conditional-specialization -> fixed-point
	// simp (capped at opt-level 3).
	top.Add(NewBddSimplificationPass())
	top.Add(NewConditionalSpecializationPass(true))
	top.Add(fixedPointSimplification("fixedpoint_simp.3", capLevel(optLevel, 3)))

	// 11. Label recovery.
	top.Add(NewLabelRecoveryPass())

	return top
}

func capLevel(optLevel, cap int) int {
	if optLevel < cap {
		return optLevel
	}
	return cap
}

// init registers every pass and its capped variants with the process-wide
// registry: "simp", "simp(2)", "simp(3)", "fixedpoint_simp",
// "fixedpoint_simp(2)", "fixedpoint_simp(3)" alongside every individual
// pass name.
func init() {
	Register("dfe", func(optLevel int) Pass { return NewDeadFunctionEliminationPass() })
	Register("dce", func(optLevel int) Pass { return NewDeadCodeEliminationPass() })
	Register("identity_removal", func(optLevel int) Pass { return NewIdentityRemovalPass() })
	Register("constant_folding", func(optLevel int) Pass { return NewConstantFoldingPass() })
	Register("canonicalization", func(optLevel int) Pass { return NewCanonicalizationPass() })
	Register("arith_simp", NewArithSimplificationPass)
	Register("bitslice_simp", NewBitSliceSimplificationPass)
	Register("concat_simp", NewConcatSimplificationPass)
	Register("select_simp", NewSelectSimplificationPass)
	Register("boolean_simp", func(optLevel int) Pass { return NewBooleanSimplificationPass() })
	Register("table_switch", func(optLevel int) Pass { return NewTableSwitchPass() })
	Register("reassociation", func(optLevel int) Pass { return NewReassociationPass() })
	Register("strength_reduction", NewStrengthReductionPass)
	Register("array_simp", NewArraySimplificationPass)
	Register("cse", func(optLevel int) Pass { return NewCsePass() })
	Register("narrowing", func(optLevel int) Pass { return NewNarrowingPass(AnalysisTernary, optLevel) })
	Register("narrowing_range", func(optLevel int) Pass { return NewNarrowingPass(AnalysisRangeWithContext, optLevel) })
	Register("unroll", func(optLevel int) Pass { return NewUnrollPass() })
	Register("map_inlining", func(optLevel int) Pass { return NewMapInliningPass() })
	Register("inlining", func(optLevel int) Pass { return NewInliningPass() })
	Register("bdd_simp", func(optLevel int) Pass { return NewBddSimplificationPass() })
	Register("bdd_cse", func(optLevel int) Pass { return NewBddCsePass() })
	Register("conditional_specialization", func(optLevel int) Pass { return NewConditionalSpecializationPass(true) })
	Register("useless_assert_removal", func(optLevel int) Pass { return NewUselessAssertRemovalPass() })
	Register("useless_io_removal", func(optLevel int) Pass { return NewUselessIORemovalPass() })
	Register("ram_rewrite", func(optLevel int) Pass { return NewRamRewritePass() })
	Register("channel_legalization", func(optLevel int) Pass { return NewChannelLegalizationPass() })
	Register("token_dependency", func(optLevel int) Pass { return NewTokenDependencyPass() })
	Register("proc_inlining", func(optLevel int) Pass { return NewProcInliningPass() })
	Register("proc_state_flattening", func(optLevel int) Pass { return NewProcStateFlatteningPass() })
	Register("dataflow_simp", func(optLevel int) Pass { return NewDataflowSimplificationPass() })
	Register("next_value_opt", NewNextValueOptimizationPass)
	Register("proc_state_opt", func(optLevel int) Pass { return NewProcStateOptimizationPass() })
	Register("label_recovery", func(optLevel int) Pass { return NewLabelRecoveryPass() })

	Register("simp", func(optLevel int) Pass { return simplificationCompound("simp", optLevel) })
	Register(cappedName("simp", 2), func(optLevel int) Pass { return simplificationCompound("simp", capLevel(optLevel, 2)) })
	Register(cappedName("simp", 3), func(optLevel int) Pass { return simplificationCompound("simp", capLevel(optLevel, 3)) })
	Register("fixedpoint_simp", func(optLevel int) Pass { return fixedPointSimplification("fixedpoint_simp", optLevel) })
	Register(cappedName("fixedpoint_simp", 2), func(optLevel int) Pass {
		return fixedPointSimplification("fixedpoint_simp", capLevel(optLevel, 2))
	})
	Register(cappedName("fixedpoint_simp", 3), func(optLevel int) Pass {
		return fixedPointSimplification("fixedpoint_simp", capLevel(optLevel, 3))
	})
}
