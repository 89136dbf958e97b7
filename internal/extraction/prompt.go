package extraction

import "strings"

const systemPrompt = "You are a helpful assistant."

const promptHeader = `You are an expert at extracting structured information from unstructured text.

Your task is to analyze the given text and extract:
1. **Entities (Nodes)**: People, organizations, locations, or any significant items mentioned.
2. **Relationships (Edges)**: Connections or relationships between the entities.

IMPORTANT RULES:
- Extract ALL meaningful entities, regardless of type
- DO NOT limit to predefined categories - create appropriate types as needed
- Each entity should have a unique ID, a type, and relevant properties
- Relationships should be meaningful and directional
- Use clear, descriptive relationship types (WORKS_AT, LOCATED_IN, etc.)
- Include as much detail as possible in properties
- Generate proper JSON format as specified below

OUTPUT FORMAT:
{
    "nodes": [
        {
        "id": "unique_entity_id",
        "type": "EntityType",
        "properties": {
            "name": "Entity Name",
            "additional_property": "value"
        }
        }
    ],
    "edges": [
        {
        "source": "source_entity_id",
        "target": "target_entity_id",
        "type": "RELATIONSHIP_TYPE",
        "properties": {
            "detail": "value"
        },
        "directed": true
        }
    ]
}

TEXT TO ANALYZE:
`

// BuildPrompt renders the extraction prompt for text, with an optional
// ADDITIONAL CONTEXT section.
func BuildPrompt(text, context string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString(text)
	b.WriteString("\n")
	if context != "" {
		b.WriteString("\nADDITIONAL CONTEXT: ")
		b.WriteString(context)
		b.WriteString("\n\n")
	}
	b.WriteString("\nOnly return valid JSON, no additional text.\n")
	return b.String()
}
