package keyword

// DefaultVocabulary returns the production word lists for the photography
// site. Closed tables; ingestion does not extend them at runtime.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Topics: []string{
			// Locations the business runs workshops in.
			"lake district", "peak district", "yorkshire dales",
			"northumberland", "snowdonia", "scotland",
			// Technical concepts.
			"iso", "aperture", "shutter speed", "white balance",
			"depth of field", "exposure", "composition", "metering",
			"focal length", "long exposure", "macro", "hdr",
			// Course format and genre words.
			"weekend", "residential", "workshop", "course", "beginner",
			"advanced", "landscape", "portrait", "wildlife", "street",
			"bluebell", "autumn", "bnb",
		},
		StopWords: []string{
			"the", "and", "you", "your", "yours", "what", "whats", "how",
			"where", "when", "why", "who", "which", "can", "could", "will",
			"would", "should", "shall", "may", "might", "must", "do", "does",
			"did", "are", "was", "were", "have", "has", "had", "being",
			"for", "with", "about", "that", "this", "there", "these",
			"they", "them", "their", "but", "not", "all", "any", "get",
			"got", "its", "from", "out", "our", "ours", "into", "onto",
			"much", "many", "need", "want", "like", "just", "some", "more",
			"tell", "please", "show",
		},
		Acronyms: []string{"iso", "raw", "rgb", "hdr", "nd"},
		Equipment: []string{
			"camera", "lens", "lenses", "tripod", "monopod", "filter",
			"filters", "flash", "sensor", "battery", "drone", "gear",
			"kit", "bag", "strap", "card",
		},
		EquipmentPhrases: []string{
			"depth of field", "white balance", "shutter speed",
			"focal length", "memory card", "wide angle", "nd filter",
			"camera bag", "lens hood", "remote release",
		},
	}
}
