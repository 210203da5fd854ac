package rewrite

// CategoryMap resolves the higher-order categories the rewriting model
// chooses from to the concrete category names persisted by the
// catalog and vector stores. Ported from the higher-order taxonomy the
// query-optimizer service prompts against.
var CategoryMap = map[string][]string{
	"العقيدة": {
		"العقيدة",
		"الفرق والردود",
		"كتب السنة",
		"الجوامع",
	},
	"التفسير": {
		"التفسير",
		"علوم القرآن وأصول التفسير",
	},
	"التجويد والقراءات": {
		"التجويد والقراءات",
	},
	"كتب الحديث و الشروح": {
		"كتب السنة",
		"شروح الحديث",
		"التخريج والأطراف",
	},
	"علوم الحديث والعلل": {
		"العلل والسؤلات الحديثية",
		"علوم الحديث",
	},
	"الفقة": {
		"أصول الفقه",
		"علوم الفقه والقواعد الفقهية",
		"الفقه الحنفي",
		"الفقه المالكي",
		"الفقه الشافعي",
		"الفقه الحنبلي",
		"الفقه العام",
		"مسائل فقهية",
		"السياسة الشرعية والقضاء",
		"الفرائض والوصايا",
		"الفتاوى",
		"الجوامع",
	},
	"السيرة النبوية": {
		"السيرة النبوية",
	},
	"التاريخ": {
		"التاريخ",
	},
	"التراجم والطبقات": {
		"التراجم والطبقات",
	},
	"اللغة والأدب": {
		"الغريب والمعاجم",
		"النحو والصرف",
		"الأدب",
	},
}

// HigherOrderCategories returns the category names the prompt offers
// the model, in a stable order so the prompt text is deterministic.
func HigherOrderCategories() []string {
	out := make([]string, 0, len(CategoryMap))
	for _, name := range categoryOrder {
		out = append(out, name)
	}
	return out
}

// categoryOrder fixes the taxonomy's iteration order; Go map iteration
// is randomized and the prompt text must not change from one call to
// the next.
var categoryOrder = []string{
	"العقيدة",
	"التفسير",
	"التجويد والقراءات",
	"كتب الحديث و الشروح",
	"علوم الحديث والعلل",
	"الفقة",
	"السيرة النبوية",
	"التاريخ",
	"التراجم والطبقات",
	"اللغة والأدب",
}

// ResolveCategories maps higher-order category names returned by the
// model to their concrete persisted category names, dropping any name
// not found in the taxonomy.
func ResolveCategories(higherOrder []string) []string {
	var resolved []string
	for _, name := range higherOrder {
		if concrete, ok := CategoryMap[name]; ok {
			resolved = append(resolved, concrete...)
		}
	}
	return resolved
}
