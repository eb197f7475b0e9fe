package natours

import "strings"

// ctxKeys renders context keys as `["a"], ["b"]`.
func ctxKeys(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = `["` + k + `"]`
	}
	return strings.Join(quoted, ", ")
}

// StageName builds the printout of a stage, e.g.
//
//	StageName(true, "FindOne", []string{"tours"}, []string{"tours.doc"}, false)
//
// gives `  => FindOne(["tours"]) => ["tours.doc"]`.
func StageName(usesInParam bool, name string, ctxDependencies []string, ctxOutputs []string, returnsAValue bool) string {
	var b strings.Builder
	if usesInParam {
		b.WriteString("  => ")
	}
	b.WriteString(FuncStr(name, ctxDependencies...))
	b.WriteString(CtxOutStr(ctxOutputs...))
	if returnsAValue {
		b.WriteString(" =>")
	}
	return b.String()
}

// FuncStr gives `name(["dep1"], ["dep2"])`.
func FuncStr(name string, ctxDependencies ...string) string {
	return name + "(" + ctxKeys(ctxDependencies) + ")"
}

// CtxOutStr gives ` => ["out1"], ["out2"]`, or nothing without outputs.
func CtxOutStr(ctxOutputs ...string) string {
	if len(ctxOutputs) == 0 {
		return ""
	}
	return " => " + ctxKeys(ctxOutputs)
}
