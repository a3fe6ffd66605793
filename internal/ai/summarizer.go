package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

const (
	minSummarizableChars = 50

	TooShortForMinutes = "Texto muito curto para gerar ata de reunião."
	TooShortForSummary = "Texto muito curto para gerar resumo."
)

const minutesSystemPrompt = `Você é um assistente especializado em elaborar atas de reunião profissionais e detalhadas. Seu objetivo é criar uma transcrição estruturada que capture com precisão os elementos essenciais da reunião.

Ao preparar a ata, siga rigorosamente estas diretrizes:

1. Cabeçalho da Ata:
- Use a data e hora fornecidas
- Local ou plataforma (presencial/virtual - inferir do contexto)
- Participantes identificados na conversa
- Identificar participantes ausentes mencionados

2. Agenda:
- Liste os tópicos discutidos em ordem cronológica
- Identifique os principais assuntos tratados
- Marque os tópicos que foram efetivamente discutidos

3. Pontos-Chave da Discussão:
- Para cada tópico identificado, documente:
  * Resumo objetivo do tema discutido
  * Principais argumentos apresentados
  * Decisões tomadas
  * Responsáveis identificados para cada ação
  * Prazos estabelecidos (se mencionados)

4. Próximos Passos:
- Crie uma seção clara de "Próximos Passos" que inclua:
  * Ação específica
  * Responsável (se identificado)
  * Prazo de conclusão (se mencionado)
  * Status atual (pendente/em andamento)

5. Regras de Estilo:
- Use linguagem profissional e objetiva
- Evite comentários pessoais ou subjetivos
- Mantenha o texto conciso e direto
- Use bullet points para facilitar a leitura
- Utilize verbos de ação ao descrever decisões e próximos passos`

type KeywordSummary struct {
	Summary  string
	Keywords []string
}

type Summarizer struct {
	client *openai.Client
	model  string
}

func NewSummarizer(apiKey, model string) *Summarizer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Summarizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Summarize produces a structured Portuguese meeting-minutes document for the
// transcript. Inputs shorter than 50 characters never reach the API.
func (s *Summarizer) Summarize(ctx context.Context, text string, meetingTime *time.Time) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minSummarizableChars {
		return TooShortForMinutes, nil
	}

	prompt := fmt.Sprintf(`
Analise a seguinte transcrição de áudio de uma reunião e elabore uma ata profissional seguindo a estrutura fornecida.

TRANSCRIÇÃO:
%s

Elabore uma ata de reunião completa e estruturada no formato:

ATA DE REUNIÃO

📅 Informações Básicas:
%s
- Local/Plataforma: [inferir do contexto ou indicar "Virtual/Online"]

👥 Participantes:
[Liste os participantes identificados na conversa]

📋 Agenda:
[Liste os tópicos principais discutidos]

💬 Discussão e Decisões:
[Para cada tópico, descreva a discussão e decisões tomadas]

✅ Próximos Passos:
[Liste ações, responsáveis e prazos identificados]

📝 Observações Finais:
[Comentários adicionais relevantes]
`, text, formatMeetingTime(meetingTime))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: minutesSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		return "", &UpstreamError{Service: "summarizer", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Service: "summarizer", Err: fmt.Errorf("empty choices")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SummarizeWithKeywords asks for a stricter labeled output and parses the
// RESUMO / PALAVRAS-CHAVE lines out of it. When the labels are absent the
// whole response becomes the summary and keywords stay empty.
func (s *Summarizer) SummarizeWithKeywords(ctx context.Context, text string) (*KeywordSummary, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minSummarizableChars {
		return &KeywordSummary{Summary: TooShortForSummary, Keywords: []string{}}, nil
	}

	prompt := fmt.Sprintf(`
Analise o seguinte texto transcrito de áudio e forneça:

1. Um resumo conciso (máximo 200 palavras)
2. Lista de 5-8 palavras-chave principais

TEXTO:
%s

RESPOSTA (use exatamente este formato):
RESUMO: [seu resumo aqui]

PALAVRAS-CHAVE: [palavra1, palavra2, palavra3, etc.]
`, text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Você é um assistente especializado em análise de texto e extração de informações relevantes."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, &UpstreamError{Service: "summarizer", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &UpstreamError{Service: "summarizer", Err: fmt.Errorf("empty choices")}
	}

	return parseKeywordResponse(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}

func parseKeywordResponse(content string) *KeywordSummary {
	result := &KeywordSummary{Keywords: []string{}}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "RESUMO:"):
			result.Summary = strings.TrimSpace(strings.TrimPrefix(line, "RESUMO:"))
		case strings.HasPrefix(line, "PALAVRAS-CHAVE:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "PALAVRAS-CHAVE:"))
			for _, kw := range strings.Split(raw, ",") {
				if trimmed := strings.TrimSpace(kw); trimmed != "" {
					result.Keywords = append(result.Keywords, trimmed)
				}
			}
		}
	}

	if result.Summary == "" {
		result.Summary = content
	}
	return result
}

func formatMeetingTime(meetingTime *time.Time) string {
	if meetingTime == nil {
		return "- Data: Não especificada\n- Hora: Não especificada"
	}

	local := *meetingTime
	if loc, err := time.LoadLocation("America/Sao_Paulo"); err == nil {
		local = meetingTime.In(loc)
	}
	return fmt.Sprintf("- Data: %s\n- Hora: %s", local.Format("02/01/2006"), local.Format("15:04"))
}
