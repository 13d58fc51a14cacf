package enrich

import (
	"strings"
	"unicode"
)

// areaKeywords maps research areas to context keywords, in priority order.
var areaKeywords = []struct {
	area     string
	keywords []string
}{
	{"Machine Learning", []string{"machine learning", "deep learning", "neural network", "neural networks"}},
	{"Natural Language Processing", []string{"natural language", "nlp", "language model", "language models", "translation", "llm", "llms"}},
	{"Computer Vision", []string{"computer vision", "image", "images", "video", "object detection", "segmentation"}},
	{"Reinforcement Learning", []string{"reinforcement learning", "reward", "policy gradient"}},
	{"Robotics", []string{"robot", "robots", "robotic", "robotics", "manipulation", "locomotion"}},
	{"Graph Learning", []string{"graph", "graphs", "gnn", "gnns"}},
	{"Artificial Intelligence", []string{"artificial intelligence", "ai", "reasoning", "agents", "planning"}},
	{"Quantum Computing", []string{"quantum", "qubit", "qubits"}},
	{"Security and Privacy", []string{"security", "privacy", "cryptography", "adversarial", "attack"}},
	{"Computational Biology", []string{"protein", "proteins", "genomics", "molecular", "biology", "drug"}},
	{"Optimization", []string{"optimization", "convex", "gradient descent"}},
	{"Data Mining", []string{"data mining", "recommendation", "recommender", "clustering"}},
}

// KeywordAreas returns up to limit research areas whose keywords appear as
// whole words in text, in table order.
func KeywordAreas(text string, limit int) []string {
	normalized := " " + strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	var areas []string
	for _, entry := range areaKeywords {
		if len(areas) >= limit {
			break
		}
		for _, kw := range entry.keywords {
			if strings.Contains(normalized, " "+kw+" ") {
				areas = append(areas, entry.area)
				break
			}
		}
	}
	return areas
}
