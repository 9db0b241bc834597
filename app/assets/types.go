package assets

// Asset is a pre-produced audio file from the studio library: an intro, an
// outro, or a background music bed. Durations use "m:ss" notation.
type Asset struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	File     string `yaml:"file" json:"file"`
	Duration string `yaml:"duration" json:"duration"`
}

// Voice is a text-to-speech voice the operator can pick per generation.
type Voice struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	ProviderVoice string `yaml:"provider_voice" json:"provider_voice"`
}

// Library is the full asset catalog loaded from the assets YAML file.
type Library struct {
	Intros []Asset `yaml:"intros" json:"intros"`
	Outros []Asset `yaml:"outros" json:"outros"`
	Music  []Asset `yaml:"music" json:"music"`
	Voices []Voice `yaml:"voices" json:"voices"`
}
