package analysis

import "strings"

// User-facing texts.
const (
	MsgTimeout      = "La imagen está tardando mucho en procesarse. Por favor, intenta con una imagen más pequeña o verifica tu conexión."
	MsgNetwork      = "Error de conexión. Verifica tu internet e intenta de nuevo."
	MsgTooLarge     = "La imagen es muy grande. Por favor, usa una imagen menor a 10MB."
	MsgBadFormat    = "Formato de imagen no válido. Usa JPG, PNG o WebP."
	MsgAuth         = "Error de autenticación. Verifica la configuración de la API."
	MsgUploadFailed = "No se pudo procesar tu imagen"

	MsgFetchFailed = "Error al obtener el análisis"
	MsgListFailed  = "Error al cargar los análisis"
	MsgNotFound    = "Análisis no encontrado"

	TitleCompleted   = "Análisis completado"
	MessageCompleted = "Tu imagen ha sido analizada exitosamente"
	TitleFailed      = "Error en el análisis"
	TitleUpdated     = "Análisis actualizado"
	MessageUpdated   = "Tu análisis está listo para visualizar"
	TitleCancelled   = "Análisis cancelado"
	MessageCancelled = "La subida de tu imagen fue cancelada"
)

// messageRules are checked in order; the first match wins.
var messageRules = []struct {
	substrings []string
	message    string
}{
	{[]string{"timeout"}, MsgTimeout},
	{[]string{"Network error"}, MsgNetwork},
	{[]string{"HTTP error! status: 413"}, MsgTooLarge},
	{[]string{"HTTP error! status: 400"}, MsgBadFormat},
	{[]string{"HTTP error! status: 401", "HTTP error! status: 403"}, MsgAuth},
}

// UserMessage maps an upload failure to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return messageFor(err.Error())
}

func messageFor(text string) string {
	for _, rule := range messageRules {
		for _, s := range rule.substrings {
			if strings.Contains(text, s) {
				return rule.message
			}
		}
	}
	return MsgUploadFailed
}
