package rfc

// RuleFunc adjusts caller values before rendering. A non-nil error
// rejects the request before anything is sent.
type RuleFunc func(Values) error

var ruleRegistry = map[string]RuleFunc{
	"sales_view_plant": salesViewPlant,
}

func lookupRule(name string) (RuleFunc, bool) {
	fn, ok := ruleRegistry[name]
	return fn, ok
}

// salesAreaPlants maps a sales organization / distribution channel pair to
// the plant that must serve it.
var salesAreaPlants = map[[2]string]string{
	{"CN60", "03"}: "CP60",
	{"TW01", "03"}: "TP01",
}

// salesViewPlant forces PLANT and DELYG_PLNT for the known sales areas,
// regardless of what the caller sent.
func salesViewPlant(v Values) error {
	area := [2]string{v.String("SALES_ORG"), v.String("DISTR_CHAN")}
	if plant, ok := salesAreaPlants[area]; ok {
		v["PLANT"] = plant
		v["DELYG_PLNT"] = plant
	}
	return nil
}
