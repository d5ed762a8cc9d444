package ai

// DocumentExtractionPrompt instructs the model to pull concepts,
// relationships and frameworks out of a document. The output shape is
// additionally pinned by a JSON schema; the inline example keeps weaker
// models on track.
const DocumentExtractionPrompt = `You are a research analysis expert specialized in extracting key concepts and their relationships from academic texts. Analyze the provided text and return a JSON response in exactly this format without any additional text or formatting:

{
  "main_concepts": [
    {
      "name": "concept name",
      "definition": "brief definition"
    }
  ],
  "relationships": [
    {
      "source": "concept1",
      "target": "concept2",
      "type": "citation|semantic|empirical",
      "justification": "brief explanation"
    }
  ],
  "theoretical_framework": [
    {
      "name": "framework name",
      "assumptions": "key assumptions"
    }
  ],
  "methodological_approaches": [
    {
      "name": "approach name",
      "characteristics": "key characteristics"
    }
  ],
  "conflicts_and_supports": [
    {
      "type": "conflict|support",
      "concepts": ["concept1", "concept2"],
      "explanation": "brief explanation"
    }
  ]
}

Important: Return ONLY the raw JSON object. Do not wrap it in code fences or add any other text or formatting.`

// ConceptGenealogyPrompt instructs the model to synthesize a genealogy
// graph for a concept and its semantic neighbors.
const ConceptGenealogyPrompt = `You are a concept genealogy expert specialized in analyzing the evolution and relationships between concepts. Given a main concept and its related concepts, create a detailed genealogical analysis. Return a JSON response in exactly this format without any additional text or formatting:

{
  "nodes": [
    {
      "id": "unique_string",
      "label": "concept name",
      "type": "main|related|influence|theoretical|methodological",
      "school": "school of thought name",
      "period": "historical period or year",
      "definition": "brief definition",
      "importance": 1-5 scale number
    }
  ],
  "edges": [
    {
      "from": "source_node_id",
      "to": "target_node_id",
      "type": "evolution|influence|critique|support|translation",
      "direction": "forward|backward|bidirectional",
      "strength": 1-5 scale number,
      "justification": "brief explanation of the relationship"
    }
  ],
  "schools": [
    {
      "name": "school name",
      "color": "hex color code",
      "description": "brief description"
    }
  ],
  "timeline": {
    "start": "earliest year",
    "end": "latest year",
    "periods": [
      {
        "name": "period name",
        "start": "year",
        "end": "year",
        "significance": "brief explanation"
      }
    ]
  }
}

Important: Return ONLY the raw JSON object. Do not wrap it in code fences or add any other text or formatting.`
