package common

import (
	"strings"

	"github.com/spf13/viper"
)

// policyFile mirrors the YAML layout of POLICY_FILE. Pointers distinguish
// "absent" from zero.
type policyFile struct {
	Threshold    *int             `mapstructure:"escalation_threshold"`
	AIConfidence *int             `mapstructure:"ai_confidence"`
	Weights      *WeightsConfig   `mapstructure:"weights"`
	Vocabulary   VocabularyConfig `mapstructure:"vocabulary"`
}

// LoadPolicyFile overlays the policy document at path onto base.
//
//	escalation_threshold: 70
//	ai_confidence: 90
//	weights: {name: 30, producer: 25, vintage: 10, grape: 15, type: 10, region: 10}
//	vocabulary:
//	  grapes: [Xinomavro]
//	  regions: [Naoussa]
//	  producer_markers: [Ktima]
//	  corrections: {CHATEAUX: CHÂTEAUX}
//	  type_synonyms: {red: [erythros], white: [lefkos]}
func LoadPolicyFile(path string, base PolicyConfig) (PolicyConfig, error) {
	out := base
	if strings.TrimSpace(path) == "" {
		return out, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return base, NewAppError("CONFIG_ERROR", "read policy file "+path, err)
	}

	// weights missing from the file keep their base values
	w := base.Weights
	f := policyFile{Weights: &w}
	if err := v.Unmarshal(&f); err != nil {
		return base, NewAppError("CONFIG_ERROR", "decode policy file "+path, err)
	}

	out.File = path
	if f.Threshold != nil {
		out.Threshold = *f.Threshold
	}
	if f.AIConfidence != nil {
		out.AIConfidence = *f.AIConfidence
	}
	out.Weights = *f.Weights
	out.Vocabulary.Grapes = append(out.Vocabulary.Grapes, f.Vocabulary.Grapes...)
	out.Vocabulary.Regions = append(out.Vocabulary.Regions, f.Vocabulary.Regions...)
	out.Vocabulary.ProducerMarkers = append(out.Vocabulary.ProducerMarkers, f.Vocabulary.ProducerMarkers...)
	if len(f.Vocabulary.Corrections) > 0 {
		merged := make(map[string]string, len(out.Vocabulary.Corrections)+len(f.Vocabulary.Corrections))
		for k, val := range out.Vocabulary.Corrections {
			merged[k] = val
		}
		for k, val := range f.Vocabulary.Corrections {
			merged[k] = val
		}
		out.Vocabulary.Corrections = merged
	}
	if len(f.Vocabulary.TypeSynonyms) > 0 {
		merged := make(map[string][]string, len(out.Vocabulary.TypeSynonyms)+len(f.Vocabulary.TypeSynonyms))
		for k, words := range out.Vocabulary.TypeSynonyms {
			merged[k] = append([]string{}, words...)
		}
		for k, words := range f.Vocabulary.TypeSynonyms {
			merged[k] = append(merged[k], words...)
		}
		out.Vocabulary.TypeSynonyms = merged
	}

	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
