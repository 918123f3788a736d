package constants

type WineType string

const (
	Red       WineType = "red"
	White     WineType = "white"
	Rose      WineType = "rosé"
	Sparkling WineType = "sparkling"
	Unknown   WineType = "unknown"
)

var allWineTypes = []WineType{Red, White, Rose, Sparkling, Unknown}

func AllWineTypes() []string {
	result := make([]string, len(allWineTypes))
	for i, t := range allWineTypes {
		result[i] = string(t)
	}
	return result
}
