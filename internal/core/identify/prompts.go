package identify

// DefaultSimilarityPrompt takes the archetype label, description, keywords and the content sample.
const DefaultSimilarityPrompt = `You compare social media content against a known cultural archetype.

<ARCHETYPE>
Label: %s
Description: %s
Keywords: %s
</ARCHETYPE>

<CONTENT SAMPLE>
%s
</CONTENT SAMPLE>

Instructions:
Rate how well the content sample fits the archetype.
Reply with a single decimal number between 0 and 1 and nothing else.
`

// DefaultLabelPrompt takes the content sample.
const DefaultLabelPrompt = `The following social media posts belong to one emerging aesthetic or style trend.

<CONTENT SAMPLE>
%s
</CONTENT SAMPLE>

Instructions:
Name the trend. Return a JSON object with keys "label" (2-4 words), "description" (one sentence)
and "keywords" (3-8 lowercase keywords).

Example JSON:
{"label": "Clean Girl", "description": "Minimal makeup and slicked-back hair.", "keywords": ["minimal", "dewy", "slicked"]}
`
