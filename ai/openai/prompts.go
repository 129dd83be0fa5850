package openai

const continuityResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "isFollowUp": {
      "type": "boolean"
    },
    "explanation": {
      "type": "string"
    },
    "searchQuery": {
      "type": "string"
    }
  },
  "required": ["isFollowUp", "explanation", "searchQuery"],
  "additionalProperties": false
}`

const continuityPrompt = `Analyze the conversation continuity between messages. Determine if the new message is:
1. A follow-up/clarification of the previous topic
2. A new, unrelated topic

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + continuityResponseSchema + `

Rules:
- "isFollowUp" is true only when the new message continues or clarifies the previous topic. Short reactions
  like "tell me more" or "why?" are follow-ups; an unrelated question is not.
- "searchQuery": if follow-up, combine relevant context from the previous exchange with the new query;
  if new topic, use just the new message.
- "explanation" is a single short sentence.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`
