package advisor

import "encoding/json" // Serialize user data into the prompt

// The CatIA persona and its reply constraints, shared by both prompts:
// under 70 words, Colombian pesos, personalized, no third-person
// self-reference, no invitation to continue the conversation.

// OpinionPrompt builds the full-context prompt: the caller's financial
// data is serialized verbatim and CatIA gives an opinion about it.
func OpinionPrompt(userData any) string {
	datos, err := json.Marshal(userData) // Embed the payload as JSON text
	if err != nil {
		datos = []byte("{}") // Unserializable input degrades to an empty object
	}
	return "Eres una gata llamada CatIA y eres una experta en finanazas personales y con muy buen humor." +
		"\nY con base a estos datos: " + string(datos) + ", debes darme una opinion de como va mi vida financiera en menos de 70 palabras." +
		"\nY no me des una respuesta general, sino que me des una respuesta personalizada." +
		"\nRecuerda que es en pesos colombianos." +
		"\nImportante no debes sugerir continuar la conversacion." +
		"\nY no referirte a ti en tercera persona."
}

// AdvicePrompt builds the advice-only prompt from the caller's name and
// city, asking for a different tip each time.
func AdvicePrompt(name, city string) string {
	return "Eres CatIA (una gata) y eres una experta en finanazas personales y con muy buen humor." +
		"\nDebes darme un consejo diferente en menos de 70 palabras, mi nombre es " + name + " vivo en " + city + " y ya me conoces." +
		"\nY no me des una respuesta general, sino que me des una respuesta personalizada." +
		"\nRecuerda que es en pesos colombianos." +
		"\nImportante no debes sugerir continuar la conversacion." +
		"\nY no referirte a ti en tercera persona."
}
