package models

// Domains are the topic areas a question can be filed under.
var Domains = []string{
	"JavaScript",
	"Python",
	"Java",
	"C++",
	"React",
	"Node.js",
	"Database",
	"DevOps",
	"Mobile",
	"Web",
	"Security",
	"Other",
}

func IsDomain(name string) bool {
	for _, d := range Domains {
		if d == name {
			return true
		}
	}
	return false
}
