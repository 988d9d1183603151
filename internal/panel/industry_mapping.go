package panel

// ComprehensiveFallback is the industry tag assigned to any security whose
// vendor-supplied label is absent from the mapping below.
const ComprehensiveFallback = "ind_comprehensive"

// VendorIndustryMapping maps the free-text Shenwan industry labels used by
// the external stock-basics vendor table to one of the 30 canonical Barra
// CNE5 industry tags. This is supplemented from the original Python
// ingestion (original_source/scripts/barra/step1_calculate_factors.py:
// INDUSTRY_MAPPING) — the distilled specification describes this mapping
// only abstractly ("a mapping from a free-text industry label... to one of
// the 30 canonical tags"); the concrete table is reproduced here so the
// fallback behavior is testable and the ingestion collaborator has a
// reference implementation to target.
//
// Labels not present in this map resolve to ComprehensiveFallback.
var VendorIndustryMapping = map[string]string{
	"银行":   "ind_banking",
	"农林牧渔": "ind_agriculture",
	"采掘":   "ind_petrochemical",
	"化工":   "ind_chemicals",
	"钢铁":   "ind_steel",
	"有色金属": "ind_nonferrous",
	"电子":   "ind_electronics",
	"汽车":   "ind_automobiles",
	"家用电器": "ind_consumer_appliances",
	"食品饮料": "ind_food_beverage",
	"纺织服饰": "ind_textiles_apparel",
	"轻工制造": "ind_light_manufacturing",
	"医药生物": "ind_pharmaceuticals",
	"公用事业": "ind_utilities",
	"交通运输": "ind_transportation",
	"房地产":  "ind_real_estate",
	"商业贸易": "ind_commerce_retail",
	"休闲服务": "ind_social_services",
	"综合":   "ind_comprehensive",
	"建筑材料": "ind_building_materials",
	"建筑装饰": "ind_construction",
	"电气设备": "ind_electrical_equipment",
	"国防军工": "ind_defense",
	"计算机":  "ind_computers",
	"传媒":   "ind_media",
	"通信":   "ind_communications",
	"非银金融": "ind_non_bank_finance",
	"环保":   "ind_environmental",
	"机械设备": "ind_machinery",
}

// ResolveIndustry maps a vendor label to a canonical tag, falling back to
// ComprehensiveFallback for unknown labels.
func ResolveIndustry(vendorLabel string) string {
	if tag, ok := VendorIndustryMapping[vendorLabel]; ok {
		return tag
	}
	return ComprehensiveFallback
}
