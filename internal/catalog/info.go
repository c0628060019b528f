package catalog

const datasetDescription = `Fermi Problems are questions whose answer is a number that can only be reasonably
estimated as a precise measurement of the value is either impossible or impractical.
`

// Homepage, License and Citation are dataset-level metadata shared by
// every configuration.
const (
	Homepage = "https://allenai.org/data/fermi"
	License  = "https://creativecommons.org/licenses/by/4.0/"
	Citation = `
@article{kalyan2021much,
  title={How Much Coffee Was Consumed During EMNLP 2019? Fermi Problems: A New Reasoning Challenge for AI},
  author={Kalyan, Ashwin and Kumar, Abhinav and Chandrasekaran, Arjun and Sabharwal, Ashish and Clark, Peter},
  journal={arXiv preprint arXiv:2110.14207},
  year={2021}
}
`
)

// Info is the metadata a host needs to present a configuration.
type Info struct {
	ConfigName     string `json:"config_name" yaml:"config_name"`
	ConfigVersion  string `json:"config_version" yaml:"config_version"`
	BuilderVersion string `json:"builder_version" yaml:"builder_version"`
	Description    string `json:"description" yaml:"description"`
	Schema         Schema `json:"schema" yaml:"schema"`
	Homepage       string `json:"homepage" yaml:"homepage"`
	License        string `json:"license" yaml:"license"`
	Citation       string `json:"citation" yaml:"citation"`
}

// Describe returns the metadata for c. The description joins the
// dataset-level text with the configuration's own.
func Describe(c Config) Info {
	return Info{
		ConfigName:     c.Name,
		ConfigVersion:  c.Version,
		BuilderVersion: BuilderVersion,
		Description:    datasetDescription + "\n" + c.Description,
		Schema:         append(Schema(nil), c.Schema...),
		Homepage:       Homepage,
		License:        License,
		Citation:       Citation,
	}
}
