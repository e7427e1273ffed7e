package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"persona-engine/internal/config"
	"persona-engine/internal/domain"
	"persona-engine/internal/llm"
	"persona-engine/internal/service"
)

func main() {
	tokenFor := flag.String("token", "", "emite un token de API para el cliente indicado y termina")
	flag.Parse()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	if *tokenFor != "" {
		token, err := service.NewAuthService(cfg.AuthSecret, 0).IssueToken(*tokenFor)
		if err != nil {
			log.Fatalf("emitir token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger := zap.NewExample()
	defer logger.Sync()

	var llmClient llm.LLMClient
	if cfg.LLMProvider == config.LLMProviderOpenAI {
		llmClient = llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	} else {
		llmClient = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	}
	collab := service.NewLLMCollaborators(llmClient, nil)
	engine := service.NewScoringEngine(nil, service.Collaborators{
		Character: collab,
		Impact:    collab,
		Assessor:  collab,
	}, service.EngineOptions{
		CollaboratorTimeout: cfg.CollaboratorTimeout(),
		DominantTraitLimit:  cfg.DominantTraitLimit,
		RevealInterval:      cfg.RevealInterval,
		RevealTraitLimit:    cfg.RevealTraitLimit,
	}, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = engine.Close(closeCtx)
	}()

	fmt.Println("===== Persona Engine =====")
	character := readCharacter(reader)
	storyID := uuid.NewString()

	session, _, err := engine.InitializeSession(ctx, service.InitSessionRequest{
		StoryID:     storyID,
		CharacterID: "cli",
		Character:   character,
	})
	if err != nil {
		log.Fatalf("iniciar sesion: %v", err)
	}
	if session.InitDegraded {
		fmt.Println("(analisis del personaje no disponible, matriz neutral)")
	}
	printDominant(engine, storyID)

	for {
		fmt.Print("\nAccion (o 'salir'): ")
		action, _ := reader.ReadString('\n')
		action = strings.TrimSpace(action)
		if action == "" {
			continue
		}
		if strings.EqualFold(action, "salir") {
			break
		}
		fmt.Print("Contexto de escena: ")
		scene, _ := reader.ReadString('\n')
		fmt.Print("Dialogo (opcional): ")
		dialogue, _ := reader.ReadString('\n')

		result, err := engine.ScoreDecision(ctx, storyID, domain.DecisionDescriptor{
			Action:       action,
			SceneContext: strings.TrimSpace(scene),
			Dialogue:     strings.TrimSpace(dialogue),
		})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(result)
	}

	summary, err := engine.GetSummary(ctx, storyID)
	if err == nil {
		fmt.Printf("\nDecisiones: %d  Consistencia: %.1f  Cambio de matriz: %.2f  Reveals: %d\n",
			summary.DecisionCount, summary.ConsistencyScore, summary.MatrixChangeScore, summary.RevealCount)
	}
}

func readCharacter(reader *bufio.Reader) domain.CharacterDescriptor {
	c := domain.CharacterDescriptor{
		Name:        readLine(reader, "Nombre del personaje: "),
		Description: readLine(reader, "Descripcion: "),
		Era:         readLine(reader, "Epoca (vacio = moderna): "),
	}
	c.Traits = splitList(readLine(reader, "Rasgos (separados por coma): "))
	c.CoreValues = splitList(readLine(reader, "Valores (separados por coma): "))
	c.SpeechPatterns = splitList(readLine(reader, "Muletillas (separadas por coma): "))
	if age := readIntDefault(reader, "Edad (vacio = sin edad): ", -1); age >= 0 {
		c.Age = &age
	}
	return c
}

func printDominant(engine *service.ScoringEngine, storyID string) {
	summary, err := engine.GetSummary(context.Background(), storyID)
	if err != nil {
		return
	}
	if len(summary.DominantTraits) == 0 {
		fmt.Println("Sin rasgos dominantes todavia.")
		return
	}
	fmt.Println("Rasgos dominantes:")
	for _, dt := range summary.DominantTraits {
		fmt.Printf("  %-24s %5.1f (%s)\n", dt.TraitID, dt.Score, dt.Consciousness)
	}
}

func printResult(result domain.ScoringResult) {
	d := result.Decision
	fmt.Printf("#%d  overall %.1f  enhanced %.1f  consistencia %.1f\n", d.Number, d.OverallScore, d.EnhancedOverallScore, result.ConsistencyScore)
	if d.EvolutionDegraded {
		fmt.Println("  (evolucion no disponible)")
	}
	ids := make([]string, 0, len(d.TraitDeltas))
	for id := range d.TraitDeltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %s %+.1f\n", id, d.TraitDeltas[id])
	}
	if result.Reveal != nil {
		r := result.Reveal
		fmt.Printf("\n=== Reveal %d (decisiones %d-%d): %.1f %s ===\n", r.Number, r.Range.From, r.Range.To, r.OverallScore, r.ScoreLevel)
		fmt.Println(r.Assessment.OverallAssessment)
	}
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readIntDefault(reader *bufio.Reader, prompt string, def int) int {
	line := readLine(reader, prompt)
	if line == "" {
		return def
	}
	if v, err := strconv.Atoi(line); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
