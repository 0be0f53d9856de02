package scoring

import "github.com/onedigit/site-engine/internal/models"

// DefaultBands covers [0, 100]. Each band is [Min, Max) except the last,
// which also takes 100.
var DefaultBands = []models.Band{
	{Min: 0, Max: 25, Label: "Emerging", Description: "Your organisation is at the early stages of AI readiness. Significant foundational work is needed across data, governance, and strategy before AI initiatives can succeed."},
	{Min: 25, Max: 50, Label: "Developing", Description: "Some AI foundations are in place but gaps remain. Focused investment in data maturity and governance will accelerate your AI readiness significantly."},
	{Min: 50, Max: 75, Label: "Established", Description: "Your organisation has solid foundations for AI. Targeted improvements in specific areas will unlock significant value from AI initiatives."},
	{Min: 75, Max: 90, Label: "Advanced", Description: "Strong AI readiness across most dimensions. Fine-tuning governance and operational practices will maximise AI ROI."},
	{Min: 90, Max: 100, Label: "Leading", Description: "Your organisation demonstrates exceptional AI readiness. Focus on continuous optimisation and staying ahead of emerging AI capabilities."},
}

// DefaultRecommendations are candidate recommendations keyed by pillar id,
// in the order they are offered.
var DefaultRecommendations = map[string][]string{
	"leadership": {
		"Establish a formal AI strategy with executive sponsorship",
		"Create a dedicated AI investment portfolio with ROI tracking",
		"Appoint a C-level AI sponsor with board visibility",
	},
	"data-maturity": {
		"Invest in a unified data platform to break down data silos",
		"Implement automated data quality monitoring with defined SLAs",
		"Build data enrichment pipelines to enhance AI training data",
	},
	"platform": {
		"Migrate to a cloud-native data platform with modern architecture",
		"Implement automated ingestion pipelines for real-time data processing",
		"Build AI-optimised infrastructure with feature stores and model serving",
	},
	"governance": {
		"Develop a comprehensive AI governance framework",
		"Implement structured risk assessment for all AI initiatives",
		"Embed privacy-by-design principles into AI development processes",
	},
	"operations": {
		"Build dedicated AI/ML engineering capability",
		"Implement MLOps practices for model deployment and monitoring",
		"Launch an organisation-wide AI literacy programme",
	},
}

// BandFor returns the first band containing pct, falling back to the last band
func BandFor(bands []models.Band, pct int) models.Band {
	for _, b := range bands {
		if b.Contains(pct) {
			return b
		}
	}
	return bands[len(bands)-1]
}
