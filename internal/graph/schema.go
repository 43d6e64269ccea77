package graph

// CleanSchema compacts a raw apoc.meta.schema map into a client-friendly
// description: it keeps the entity type tag, count and labels when present,
// and trims every property entry down to its indexed flag and declared type.
// Empty collections are omitted so the payload stays bounded. Running it on
// its own output is a no-op.
func CleanSchema(schema map[string]any) map[string]any {
	cleaned := make(map[string]any, len(schema))
	for key, value := range schema {
		entry, ok := value.(map[string]any)
		if !ok {
			continue
		}

		out := map[string]any{"type": entry["type"]}

		if count, ok := entry["count"]; ok {
			out["count"] = count
		}
		if labels, ok := entry["labels"].([]any); ok && len(labels) > 0 {
			out["labels"] = labels
		}
		if props, ok := entry["properties"].(map[string]any); ok {
			if cleanProps := cleanProperties(props); len(cleanProps) > 0 {
				out["properties"] = cleanProps
			}
		}
		if rels, ok := entry["relationships"].(map[string]any); ok {
			if cleanRels := cleanRelationships(rels); len(cleanRels) > 0 {
				out["relationships"] = cleanRels
			}
		}

		cleaned[key] = out
	}
	return cleaned
}

func cleanRelationships(rels map[string]any) map[string]any {
	out := make(map[string]any, len(rels))
	for name, value := range rels {
		rel, ok := value.(map[string]any)
		if !ok {
			continue
		}

		cleaned := map[string]any{}
		if direction, ok := rel["direction"]; ok {
			cleaned["direction"] = direction
		}
		if labels, ok := rel["labels"].([]any); ok && len(labels) > 0 {
			cleaned["labels"] = labels
		}
		if props, ok := rel["properties"].(map[string]any); ok {
			if cleanProps := cleanProperties(props); len(cleanProps) > 0 {
				cleaned["properties"] = cleanProps
			}
		}

		if len(cleaned) > 0 {
			out[name] = cleaned
		}
	}
	return out
}

// cleanProperties retains only the indexed flag and declared type of each
// property, discarding the verbose introspection metadata.
func cleanProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for name, value := range props {
		info, ok := value.(map[string]any)
		if !ok {
			continue
		}

		cleaned := map[string]any{}
		for _, attr := range []string{"indexed", "type"} {
			if v, ok := info[attr]; ok {
				cleaned[attr] = v
			}
		}
		if len(cleaned) > 0 {
			out[name] = cleaned
		}
	}
	return out
}
