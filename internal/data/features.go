package data

const (
	IDColumn    = "Id"
	LabelColumn = "quality"
	NumFeatures = 11
)

// FeatureColumns is the CSV header of each feature, in model input order.
var FeatureColumns = []string{
	"fixed acidity",
	"volatile acidity",
	"citric acid",
	"residual sugar",
	"chlorides",
	"free sulfur dioxide",
	"total sulfur dioxide",
	"density",
	"pH",
	"sulphates",
	"alcohol",
}

var FeatureNames = []string{
	"Fixed Acidity", "Volatile Acidity", "Citric Acid",
	"Residual Sugar", "Chlorides", "Free Sulfur Dioxide",
	"Total Sulfur Dioxide", "Density", "pH", "Sulphates", "Alcohol",
}

var FeatureUnits = []string{
	"g/dm³", "g/dm³", "g/dm³",
	"g/dm³", "g/dm³", "mg/dm³",
	"mg/dm³", "g/cm³", "", "g/dm³", "%",
}
