package instrumentation

// Label value bounding for metrics.
//
// Stage and intent labels come from the conversation package, and verdict
// labels from the availability engine. BoundedLabel keeps any unexpected value
// from creating a new time series.

// LabelOther replaces label values outside the allowed set.
const LabelOther = "other"

// BoundedLabel returns value if it is one of allowed and LabelOther otherwise.
// An empty value is reported as "none".
//
// Example:
//
//	BoundedLabel("booking", "greeting", "booking")  // "booking"
//	BoundedLabel("hola!!", "greeting", "booking")   // "other"
func BoundedLabel(value string, allowed ...string) string {
	if value == "" {
		return "none"
	}
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return LabelOther
}
