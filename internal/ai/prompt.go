package ai

import (
	"fmt"
	"strings"

	"github.com/nhle/newsdigest/internal/model"
)

const emptyBodyPlaceholder = "Sin contenido"

// systemPrompt holds the classification rules and the reply shape.
const systemPrompt = `Eres un asistente que clasifica newsletters técnicos de datos e IA.

Para CADA newsletter recibido devuelve un objeto con estos campos:

1. "titulo": el asunto, limpio de prefijos y emojis.
2. "fuente": el remitente.
3. "categoria": exactamente uno de Herramienta, Tutorial o Noticia.
4. "herramienta": si la categoria es Herramienta, el nombre de la herramienta o librería; en otro caso null.
5. "resumen": una o dos oraciones en español. Menciona las librerías usadas si aparecen (por ejemplo pandas, pyspark, scikit-learn, pytorch, langchain).
6. "tags": exactamente 2 tags en minúsculas:
   - el tipo: tutorial, herramienta o noticia
   - el campo: machine-learning, deep-learning, nlp, computer-vision, time-series, recommender-systems, reinforcement-learning, causal-inference, statistical-modeling, data-engineering, mlops, analytics-bi, feature-engineering, optimization, bayesian-methods, generative-ai, llm o rag-systems

Mantén el mismo orden y la misma cantidad de newsletters que recibes.

Formato de respuesta:
{"newsletters":[{"titulo":"...","fuente":"...","categoria":"...","herramienta":null,"resumen":"...","tags":["tipo","campo"]}]}

Responde solo con JSON.`

// buildUserPrompt lists each message's subject, sender and the first
// previewRunes runes of its body, numbered from 1.
func buildUserPrompt(msgs []model.MessageRecord, previewRunes int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analiza estos %d newsletters y genera el JSON estructurado:\n", len(msgs))

	for i, m := range msgs {
		body := strings.TrimSpace(model.Truncate(m.Body, previewRunes))
		if body == "" {
			body = emptyBodyPlaceholder
		}

		sb.WriteString("\n---\n")
		fmt.Fprintf(&sb, "Newsletter %d:\n", i+1)
		fmt.Fprintf(&sb, "Asunto: %s\n", m.Subject)
		fmt.Fprintf(&sb, "De: %s\n", m.Sender)
		sb.WriteString("Contenido:\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}

	return sb.String()
}
