package ccs

// DefaultJudgementTypes returns the judgement types advertised on the feed.
// Only AC and WA are ever produced by reconstruction; the rest exist so
// downstream resolvers see a complete set.
func DefaultJudgementTypes() []JudgementType {
	return []JudgementType{
		{ID: "AC", Name: "Accepted", Penalty: false, Solved: true},
		{ID: "WA", Name: "Wrong Answer", Penalty: true, Solved: false},
		{ID: "TLE", Name: "Time Limit Exceeded", Penalty: true, Solved: false},
		{ID: "RTE", Name: "Run-Time Error", Penalty: true, Solved: false},
		{ID: "CE", Name: "Compile Error", Penalty: false, Solved: false},
	}
}

// DefaultLanguages returns the advertised language set. The scoreboard does
// not expose languages, so submissions are attributed to cpp.
func DefaultLanguages() []Language {
	return []Language{
		{ID: "c", Name: "C"},
		{ID: "cpp", Name: "C++"},
		{ID: "java", Name: "Java"},
		{ID: "kotlin", Name: "Kotlin"},
		{ID: "python3", Name: "Python 3"},
	}
}

// DefaultLanguageID is the placeholder language for reconstructed
// submissions.
const DefaultLanguageID = "cpp"
