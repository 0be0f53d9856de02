package insights

// DefaultCTAType is used when an article's ctaType is unknown
const DefaultCTAType = "ai-readiness"

// CTAConfig is the call-to-action panel rendered under an article
type CTAConfig struct {
	Heading        string `json:"heading"`
	Description    string `json:"description"`
	PrimaryLabel   string `json:"primaryLabel"`
	PrimaryHref    string `json:"primaryHref"`
	SecondaryLabel string `json:"secondaryLabel"`
	SecondaryHref  string `json:"secondaryHref"`
}

var ctaMap = map[string]CTAConfig{
	"ai-readiness": {
		Heading:        "Evaluate Your AI Readiness",
		Description:    "Our structured assessment benchmarks your organisation across five pillars and provides a clear roadmap.",
		PrimaryLabel:   "Take the Assessment",
		PrimaryHref:    "/ai-readiness-assessment",
		SecondaryLabel: "Discuss Your Results",
		SecondaryHref:  "/contact?topic=ai-readiness",
	},
	"platform-discussion": {
		Heading:        "Explore Platform Options",
		Description:    "Discuss how a purpose-built data platform can reduce cost, improve governance, and accelerate your AI initiatives.",
		PrimaryLabel:   "Discuss Platforms",
		PrimaryHref:    "/contact?topic=platform",
		SecondaryLabel: "View Our Platforms",
		SecondaryHref:  "/our-platforms",
	},
	"architecture-review": {
		Heading:        "Review Your Architecture",
		Description:    "Our architects can assess your current data infrastructure and identify optimisation opportunities.",
		PrimaryLabel:   "Request a Review",
		PrimaryHref:    "/contact?topic=architecture",
		SecondaryLabel: "How We Work",
		SecondaryHref:  "/what-we-do",
	},
	"security-review": {
		Heading:        "Strengthen Your Data Governance",
		Description:    "Understand how your data security and governance posture compares to enterprise best practice.",
		PrimaryLabel:   "Explore Trust & Security",
		PrimaryHref:    "/trust-security",
		SecondaryLabel: "Get in Touch",
		SecondaryHref:  "/contact?topic=security",
	},
}

// CTAFor resolves the CTA panel for ctaType
func CTAFor(ctaType string) CTAConfig {
	if cfg, ok := ctaMap[ctaType]; ok {
		return cfg
	}
	return ctaMap[DefaultCTAType]
}

// KnownCTAType reports whether ctaType has its own panel
func KnownCTAType(ctaType string) bool {
	_, ok := ctaMap[ctaType]
	return ok
}
