package analysis

import "github.com/sashabaranov/go-openai/jsonschema"

// systemPrompt is the fixed instruction sent with every frame.
const systemPrompt = `You are a driver-assistance vision system. Analyze the road scene in the image and report:
- every road sign you can read, with its meaning and where it appears in the frame
- every hazard relevant to the driver (vehicles, pedestrians, road damage, weather, obstructions), graded LOW, MEDIUM or HIGH
- an overall safety verdict: SAFE, CAUTION or DANGER
- one short, actionable recommendation for the driver

Respond with JSON only, matching the provided schema. Be concise and factual; do not speculate about objects you cannot see.`

// schemaName identifies the structured-output schema to the endpoint.
const schemaName = "road_scene_analysis"

// responseSchema is the fixed response shape: signs, hazards, safety level
// and recommendation. Severity and safety level are restricted at the
// schema, not re-validated locally.
var responseSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"signs": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"type":     {Type: jsonschema.String},
					"meaning":  {Type: jsonschema.String},
					"location": {Type: jsonschema.String},
				},
				Required: []string{"type", "meaning", "location"},
			},
		},
		"hazards": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"type": {Type: jsonschema.String},
					"severity": {
						Type: jsonschema.String,
						Enum: []string{"LOW", "MEDIUM", "HIGH"},
					},
					"description": {Type: jsonschema.String},
				},
				Required: []string{"type", "severity", "description"},
			},
		},
		"safetyLevel": {
			Type: jsonschema.String,
			Enum: []string{"SAFE", "CAUTION", "DANGER"},
		},
		"recommendation": {Type: jsonschema.String},
	},
	Required: []string{"signs", "hazards", "safetyLevel", "recommendation"},
}
