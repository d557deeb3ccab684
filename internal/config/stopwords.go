package config

// defaultStopwords is the default label filter list: common English
// function words plus conversational filler that dominates spoken-word
// transcripts. Override via the stopwords key in TALKINDEX_CONFIG.
var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am",
	"an", "and", "any", "are", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "cannot", "could", "did", "do",
	"does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "into", "its", "itself",
	"just", "like", "more", "most", "much", "myself", "nor", "not", "now",
	"off", "once", "only", "other", "ought", "our", "ours", "ourselves",
	"out", "over", "own", "really", "same", "she", "should", "some", "such",
	"than", "that", "the", "their", "theirs", "them", "themselves", "then",
	"there", "these", "they", "things", "this", "those", "through", "too",
	"under", "until", "very", "was", "were", "what", "when", "where",
	"which", "while", "who", "whom", "why", "will", "with", "would", "you",
	"your", "yours", "yourself", "yourselves",
}
