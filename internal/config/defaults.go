package config

// Default is the configuration written on first start and the base that
// user files are decoded over.
func Default() Config {
	var c Config

	c.App.Port = 38471
	c.App.DataDir = "."
	c.App.LogLevel = "info"
	c.App.LogFile = "engine.log"

	c.Discovery.Strategy = "auto"
	c.Discovery.Threshold = 0.6
	c.Discovery.TimeoutSeconds = 45
	c.Discovery.SearchURL = "https://html.duckduckgo.com/html/"
	c.Discovery.RequestsPerSecond = 0.5
	c.Discovery.Burst = 1
	c.Discovery.CacheTTLHours = 24 * 30
	c.Discovery.Primary.SearchPageURL = "https://www.bing.com/search?q=%s"
	c.Discovery.Primary.Headless = true
	c.Discovery.Primary.LLMModel = "gpt-4o-mini"
	c.Discovery.Primary.MaxPageChars = 20000

	c.Collector.BaseURL = "https://api.apify.com"
	c.Collector.ActorID = "VhxlqQXRwhW8H5hNV"
	c.Collector.TimeoutSeconds = 180
	c.Collector.IncludeEmail = true
	c.Collector.Retries = 2

	c.Store.Driver = "sqlite"
	c.Store.SQLitePath = "alumni.db"

	c.Audit.Dir = "audit"
	c.Audit.RetentionDays = 90
	c.Audit.SaveRaw = true

	c.Batch.DefaultConcurrency = 3
	c.Batch.MaxConcurrency = 10
	c.Batch.StoreFailureWarningAfter = 3

	c.Institute.NameVariations = []string{
		"IIIT-Naya Raipur",
		"IIIT Naya Raipur",
		"IIIT-NR",
		"IIIT NR",
		"iiitnr",
		"Dr. S.P.M. International Institute of Information Technology, Naya Raipur",
	}
	c.Institute.RelevantDegrees = []string{
		"btech", "b.tech", "bachelor of technology",
		"mtech", "m.tech", "master of technology",
		"phd", "ph.d", "doctor of philosophy",
	}
	c.Institute.DefaultBranch = "Other"
	c.Institute.Branches = []Rule{
		{Tag: "CSE", Any: []string{"computer science", "cse", "computer engineering", "information technology", "software engineering"}},
		{Tag: "ECE", Any: []string{"electronics", "ece", "communication engineering", "vlsi", "embedded systems"}},
		{Tag: "DSAI", Any: []string{"data science", "dsai", "artificial intelligence", "machine learning"}},
	}

	c.Skills.Technical = []Rule{
		{Tag: "Go", Any: []string{"golang", "go developer"}},
		{Tag: "Python", Any: []string{"python", "django", "flask"}},
		{Tag: "Java", Any: []string{"java ", "spring boot"}},
		{Tag: "JavaScript", Any: []string{"javascript", "node.js", "react", "typescript"}},
		{Tag: "Machine Learning", Any: []string{"machine learning", "deep learning", "ml engineer"}},
		{Tag: "Data Engineering", Any: []string{"data engineer", "etl", "spark"}},
		{Tag: "Backend", Any: []string{"backend", "back-end", "microservices"}},
		{Tag: "Embedded Systems", Any: []string{"embedded", "firmware", "vlsi"}},
	}
	c.Skills.Tools = []Rule{
		{Tag: "AWS", Any: []string{"aws", "amazon web services"}},
		{Tag: "GCP", Any: []string{"gcp", "google cloud"}},
		{Tag: "Docker", Any: []string{"docker"}},
		{Tag: "Kubernetes", Any: []string{"kubernetes", "k8s"}},
		{Tag: "PostgreSQL", Any: []string{"postgres"}},
		{Tag: "Git", Any: []string{"git ", "github", "gitlab"}},
	}
	return c
}
