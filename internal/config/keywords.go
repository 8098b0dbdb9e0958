package config

// Built-in filter vocabularies, used when the config file does not override
// them. They are data: tune in config, not here.

// DefaultExcludeKeywords reject a posting outright when found in its title.
// Non-technical functions plus seniority signals that rule out an internship.
func DefaultExcludeKeywords() []string {
	return []string{
		"accounting",
		"accountant",
		"marketing",
		"sales",
		"legal",
		"paralegal",
		"medical",
		"nurse",
		"nursing",
		"pharmacy",
		"clinical",
		"finance manager",
		"human resources",
		"recruiter",
		"senior manager",
		"account manager",
		"director",
		"vice president",
		"chief",
		"head of",
		"principal",
		"staff engineer",
		"senior engineer",
		"sr.",
	}
}

// DefaultInternshipKeywords signal an internship or entry-level role in the
// title or description.
func DefaultInternshipKeywords() []string {
	return []string{
		"intern",
		"internship",
		"co-op",
		"coop",
		"entry level",
		"entry-level",
		"new grad",
		"new graduate",
		"recent graduate",
		"junior",
		"trainee",
		"apprentice",
		"summer intern",
		"fall intern",
		"spring intern",
		"winter intern",
	}
}

// DefaultCSKeywords are the technical terms at least one of which must appear
// in the combined title and description.
func DefaultCSKeywords() []string {
	return []string{
		"software",
		"engineer",
		"engineering",
		"developer",
		"development",
		"programming",
		"computer science",
		"data science",
		"data analyst",
		"data engineering",
		"machine learning",
		"deep learning",
		"artificial intelligence",
		"cloud",
		"devops",
		"site reliability",
		"frontend",
		"front-end",
		"backend",
		"back-end",
		"full stack",
		"full-stack",
		"web development",
		"python",
		"java",
		"javascript",
		"typescript",
		"golang",
		"c++",
		"rust",
		"kotlin",
		"swift",
		"sql",
		"database",
		"kubernetes",
		"docker",
		"linux",
		"security",
		"cybersecurity",
		"embedded",
		"firmware",
		"mobile",
		"ios",
		"android",
		"react",
		"node.js",
	}
}
