package db

// DetectKind guesses what sort of database a set of table names describes.
// Recognized patterns come from common bioinformatics and experimental
// databases; anything else is a plain SQLite database.
func DetectKind(tables []string) string {
	have := make(map[string]bool, len(tables))
	for _, t := range tables {
		have[t] = true
	}
	for _, t := range []string{"contigs", "genes", "genomes"} {
		if have[t] {
			return "Bioinformatics database"
		}
	}
	for _, t := range []string{"samples", "measurements", "experiments"} {
		if have[t] {
			return "Experimental database"
		}
	}
	return "SQLite database"
}
