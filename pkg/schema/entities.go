package schema

// Hero is one record of the superhero API, e.g. /api/id/70.json.
// Every field is required; see Decode.
type Hero struct {
	Name        string      `json:"name" jsonschema_description:"Hero name as displayed"`
	Powerstats  Powerstats  `json:"powerstats" jsonschema_description:"Six power statistics, conventionally 0-100"`
	Appearance  Appearance  `json:"appearance" jsonschema_description:"Physical appearance"`
	Biography   Biography   `json:"biography" jsonschema_description:"Biographical details"`
	Work        Work        `json:"work" jsonschema_description:"Occupation and base of operations"`
	Connections Connections `json:"connections" jsonschema_description:"Affiliations and relatives"`
	Images      Images      `json:"images" jsonschema_description:"Portrait URLs keyed by size"`
}

type Powerstats struct {
	Intelligence int `json:"intelligence"`
	Strength     int `json:"strength"`
	Speed        int `json:"speed"`
	Durability   int `json:"durability"`
	Power        int `json:"power"`
	Combat       int `json:"combat"`
}

type Appearance struct {
	Gender    string   `json:"gender"`
	Race      string   `json:"race"`
	Height    []string `json:"height" jsonschema_description:"One entry per unit system, e.g. [\"6'2\", \"188 cm\"]"`
	Weight    []string `json:"weight" jsonschema_description:"One entry per unit system, e.g. [\"210 lb\", \"95 kg\"]"`
	EyeColor  string   `json:"eyeColor"`
	HairColor string   `json:"hairColor"`
}

type Biography struct {
	FullName        string `json:"fullName"`
	AlterEgos       string `json:"alterEgos"`
	PlaceOfBirth    string `json:"placeOfBirth"`
	FirstAppearance string `json:"firstAppearance"`
	Publisher       string `json:"publisher"`
	Alignment       string `json:"alignment" jsonschema_description:"good, bad or neutral"`
}

type Work struct {
	Occupation string `json:"occupation"`
	Base       string `json:"base"`
}

type Connections struct {
	GroupAffiliation string `json:"groupAffiliation"`
	Relatives        string `json:"relatives"`
}

type Images struct {
	XS string `json:"xs" jsonschema_description:"Extra-small portrait URL"`
	SM string `json:"sm" jsonschema_description:"Small portrait URL"`
	MD string `json:"md" jsonschema_description:"Medium portrait URL"`
	LG string `json:"lg" jsonschema_description:"Large portrait URL"`
}
