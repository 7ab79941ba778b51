package features

// RiskSchema is the input contract of the heart-disease risk classifier
// (UCI Heart Disease column order). Categorical inputs arrive as codes; the
// Encoder maps form labels onto them.
var RiskSchema = NewSchema("risk", Classification,
	Field{Name: "age", Type: Integer, Min: bound(1), Max: bound(120), Default: 50, Help: "Age"},
	Field{Name: "sex", Type: Code, Codes: []int{0, 1}, Default: 1, Help: "Gender"},
	Field{Name: "cp", Type: Code, Codes: []int{1, 2, 3, 4}, Default: 1, Help: "Chest Pain Type (cp)"},
	Field{Name: "trestbps", Type: Integer, Min: bound(50), Max: bound(250), Default: 120, Help: "Resting Blood Pressure (trestbps, mm Hg)"},
	Field{Name: "chol", Type: Integer, Min: bound(100), Max: bound(600), Default: 200, Help: "Serum Cholesterol (chol, mg/dl)"},
	Field{Name: "fbs", Type: Code, Codes: []int{0, 1}, Default: 0, Help: "Fasting Blood Sugar > 120 mg/dl"},
	Field{Name: "restecg", Type: Code, Codes: []int{0, 1, 2}, Default: 0, Help: "Resting ECG Results (restecg)"},
	Field{Name: "thalach", Type: Integer, Min: bound(60), Max: bound(220), Default: 150, Help: "Maximum Heart Rate Achieved (thalach)"},
	Field{Name: "exang", Type: Code, Codes: []int{0, 1}, Default: 0, Help: "Exercise Induced Angina (exang)"},
	Field{Name: "oldpeak", Type: Number, Min: bound(0), Max: bound(6.2), Default: 1.0, Help: "ST Depression Induced by Exercise (oldpeak)"},
	Field{Name: "slope", Type: Code, Codes: []int{1, 2, 3}, Default: 1, Help: "Slope of Peak Exercise ST Segment"},
	Field{Name: "ca", Type: Integer, Min: bound(0), Max: bound(4), Default: 0, Help: "Number of Major Vessels Colored by Fluoroscopy (ca)"},
	Field{Name: "thal", Type: Code, Codes: []int{3, 6, 7}, Default: 3, Help: "Thalassemia"},
)

// Kind names a served model variant.
type Kind string

const (
	KindPrice Kind = "price"
	KindRisk  Kind = "risk"
)

// SchemaFor returns the schema of a model variant.
func SchemaFor(k Kind) (*Schema, bool) {
	switch k {
	case KindPrice:
		return PriceSchema, true
	case KindRisk:
		return RiskSchema, true
	}
	return nil, false
}
