package predictor

// UnknownLabel is returned for class codes outside the condition table.
const UnknownLabel = "Unknown"

// ConditionEntry pairs a classifier class code with its condition name.
type ConditionEntry struct {
	Code  int
	Label string
}

var conditionLabels = map[int]string{
	0: "Depression",
	1: "Diabetes, Type 2",
	2: "High Blood Pressure",
}

// ResolveLabel maps a class code to its condition name. Every code has an answer.
func ResolveLabel(code int) string {
	if label, ok := conditionLabels[code]; ok {
		return label
	}
	return UnknownLabel
}

// Conditions returns the label table ordered by code.
func Conditions() []ConditionEntry {
	return []ConditionEntry{
		{Code: 0, Label: conditionLabels[0]},
		{Code: 1, Label: conditionLabels[1]},
		{Code: 2, Label: conditionLabels[2]},
	}
}
