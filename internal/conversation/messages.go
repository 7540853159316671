package conversation

// Fixed replies. Proposals are written by an assistant.ReplyWriter.
const (
	MsgWelcome         = "Bienvenido a este chatbot.\nSi deseas agendar una cita puedes escribir 'Agendar cita' para reservar."
	MsgNotUnderstood   = "No te entiendo."
	MsgAskDate         = "¡Perfecto! ¿Qué fecha quieres agendar?"
	MsgChecking        = "Revisando disponibilidad..."
	MsgNoDate          = "No se pudo deducir una fecha. Vuelve a intentarlo, por ejemplo: \"30 de mayo a las 10\"."
	MsgAskConfirmation = "¿Confirmas la fecha propuesta? Responde únicamente con 'si' o 'no'."
	MsgCancelled       = "La reserva fue cancelada."
	MsgAskName         = "¡Excelente! Gracias por confirmar la fecha. Te voy a hacer unas consultas para agendar tu cita. Primero, ¿cuál es tu nombre?"
	MsgAskReason       = "Perfecto, ¿cuál es el motivo de tu cita?"
	MsgBooked          = "Genial, ya creé la reunión. ¡Te esperamos!"
	MsgNoSlots         = "Lo siento, no hay horarios disponibles en los próximos días."
	MsgSlotTaken       = "Lo siento, ese horario acaba de ser ocupado."
	MsgError           = "Lo siento, tuvimos un problema al consultar la agenda. Intenta de nuevo en unos minutos."
)
