package features

// CarMakes is the make domain of the price model.
var CarMakes = []string{"toyota", "honda"}

// CarModels is the model domain of the price model.
var CarModels = []string{
	"Prius", "Highlander", "Civic", "Accord", "Corolla", "Ridgeline",
	"Odyssey", "CR-V", "Pilot", "Camry Solara", "Matrix", "RAV4",
	"Rav4", "HR-V", "Fit", "Yaris", "Yaris iA", "Tacoma", "Camry",
	"Avalon", "Venza", "Sienna", "Passport", "Accord Crosstour",
	"Crosstour", "Element", "Tundra", "Sequoia", "Corolla Hatchback",
	"4Runner", "Echo", "Tercel", "MR2 Spyder", "FJ Cruiser",
	"Corolla iM", "C-HR", "Civic Hatchback", "86", "S2000", "Supra",
	"Insight", "Clarity", "CR-Z", "Prius Prime", "Prius Plug-In",
	"Prius c", "Prius C", "Prius v",
}

// CarStates is the listing state/province domain of the price model.
var CarStates = []string{"NB", "QC", "BC", "ON", "AB", "MB", "SK", "NS", "PE", "NL", "YT", "NC", "OH", "SC"}

// PriceSchema is the input contract of the used-car price regressor.
var PriceSchema = NewSchema("price", Regression,
	Field{Name: "miles", Type: Integer, Min: bound(0), Default: 86132, Help: "Odometer reading"},
	Field{Name: "year", Type: Integer, Min: bound(1886), Max: bound(2100), Default: 2010, Help: "Model year"},
	Field{Name: "engine_size", Type: Number, Min: bound(0.9), Max: bound(10), Default: 1.5, Help: "Engine displacement in litres"},
	Field{Name: "make", Type: Categorical, Domain: CarMakes, Default: "toyota", Help: "Manufacturer"},
	Field{Name: "model", Type: Categorical, Domain: CarModels, Default: "Prius", Help: "Model name"},
	Field{Name: "state", Type: Categorical, Domain: CarStates, Default: "NB", Help: "Choose predefined state"},
)
