package notion

import (
	"fmt"
	"strings"
)

// SetupInstructions returns the steps for creating the target database
// and connecting an integration to it.
func SetupInstructions() string {
	var sb strings.Builder

	sb.WriteString("## Crear base de datos en Notion\n\n")
	sb.WriteString("1. Abre Notion y crea una nueva página\n")
	sb.WriteString("2. Escribe /database y selecciona \"Database - Full page\"\n")
	sb.WriteString("3. Configura estas columnas:\n\n")

	rows := [][3]string{
		{"Columna", "Tipo", "Opciones"},
		{PropTitle, "Title", "(default)"},
		{PropSource, "Text", ""},
		{PropDate, "Date", ""},
		{PropCategory, "Select", "Herramienta, Tutorial, Noticia"},
		{PropSummary, "Text", ""},
		{PropTags, "Multi-select", "(se crean automáticamente)"},
		{PropTool, "Text", ""},
		{PropLink, "URL", ""},
	}
	for i, r := range rows {
		fmt.Fprintf(&sb, "| %-22s | %-12s | %-30s |\n", r[0], r[1], r[2])
		if i == 0 {
			fmt.Fprintf(&sb, "|%s|%s|%s|\n",
				strings.Repeat("-", 24), strings.Repeat("-", 14), strings.Repeat("-", 32))
		}
	}

	sb.WriteString("\n## Configurar integración\n\n")
	sb.WriteString("1. Ve a https://www.notion.so/my-integrations\n")
	sb.WriteString("2. Click \"New integration\" y ponle un nombre, por ejemplo \"Newsletter Digest\"\n")
	sb.WriteString("3. Copia el \"Internal Integration Token\" a NOTION_TOKEN\n")
	sb.WriteString("   o guárdalo con: newsdigest --set-credential notion-token\n")
	sb.WriteString("4. En la base de datos abre \"...\" > \"Connections\" y añade la integración\n")
	sb.WriteString("5. Copia el ID de la base de datos de su URL a NOTION_DATABASE_ID:\n")
	sb.WriteString("   https://www.notion.so/<workspace>/<DATABASE_ID>?v=...\n")

	return sb.String()
}
