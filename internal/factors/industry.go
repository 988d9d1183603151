package factors

// IndustryTag is the closed vocabulary of 30 canonical Barra CNE5 industry
// classifications, fixed in the order the industry dummy columns appear in
// every downstream artifact. It is a compile-time enum rather than a raw
// string, so every row sets exactly one of the 30 dummy columns; a name
// outside the vocabulary (a typo in a vendor mapping included) resolves to
// IndustryComprehensive in ParseIndustryTag without an error.
type IndustryTag int

const (
	IndustryPetrochemical IndustryTag = iota
	IndustryCoal
	IndustryNonferrous
	IndustryUtilities
	IndustrySteel
	IndustryChemicals
	IndustryBuildingMaterials
	IndustryConstruction
	IndustryTransportation
	IndustryAutomobiles
	IndustryMachinery
	IndustryDefense
	IndustryElectricalEquipment
	IndustryElectronics
	IndustryComputers
	IndustryCommunications
	IndustryConsumerAppliances
	IndustryLightManufacturing
	IndustryTextilesApparel
	IndustryFoodBeverage
	IndustryAgriculture
	IndustryBanking
	IndustryNonBankFinance
	IndustryRealEstate
	IndustryCommerceRetail
	IndustrySocialServices
	IndustryMedia
	IndustryPharmaceuticals
	IndustryEnvironmental
	IndustryComprehensive

	NumIndustries = int(IndustryComprehensive) + 1
)

var industryNames = [NumIndustries]string{
	"ind_petrochemical", "ind_coal", "ind_nonferrous", "ind_utilities", "ind_steel",
	"ind_chemicals", "ind_building_materials", "ind_construction", "ind_transportation",
	"ind_automobiles", "ind_machinery", "ind_defense", "ind_electrical_equipment",
	"ind_electronics", "ind_computers", "ind_communications", "ind_consumer_appliances",
	"ind_light_manufacturing", "ind_textiles_apparel", "ind_food_beverage",
	"ind_agriculture", "ind_banking", "ind_non_bank_finance", "ind_real_estate",
	"ind_commerce_retail", "ind_social_services", "ind_media", "ind_pharmaceuticals",
	"ind_environmental", "ind_comprehensive",
}

var industryByTag = func() map[string]IndustryTag {
	m := make(map[string]IndustryTag, NumIndustries)
	for i, name := range industryNames {
		m[name] = IndustryTag(i)
	}
	return m
}()

// String returns the canonical column name, e.g. "ind_banking".
func (t IndustryTag) String() string {
	if t < 0 || int(t) >= NumIndustries {
		return "ind_unknown"
	}
	return industryNames[t]
}

// ParseIndustryTag resolves a canonical tag name (as produced by
// panel.ResolveIndustry) to an IndustryTag, falling back to
// IndustryComprehensive for any name outside the 30-tag vocabulary.
func ParseIndustryTag(name string) IndustryTag {
	if tag, ok := industryByTag[name]; ok {
		return tag
	}
	return IndustryComprehensive
}

// OneHot returns the 30-length dummy vector for this tag: 1.0 at its own
// index, 0.0 elsewhere.
func (t IndustryTag) OneHot() [NumIndustries]float64 {
	var v [NumIndustries]float64
	if t >= 0 && int(t) < NumIndustries {
		v[t] = 1.0
	}
	return v
}

// IndustryNames returns the fixed column order of the 30 industry tags.
func IndustryNames() []string {
	out := make([]string, NumIndustries)
	copy(out, industryNames[:])
	return out
}
