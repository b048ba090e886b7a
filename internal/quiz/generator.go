package quiz

import (
	"math/rand"
	"sync"
	"time"
)

// Generator builds quiz instances: samples the question pool and shuffles
// option order. The random source is injected so tests can pin it; calls
// are serialized because math/rand sources are not safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// Generate realizes one instance of the quiz. PoolSize zero or >= the
// question count selects every question in catalog order; otherwise a
// uniform sample without replacement, each call independent. When
// RandomizeAnswers is set each question gets an independent uniform
// permutation of its option positions, else the identity map.
func (g *Generator) Generate(z Quiz) (Instance, error) {
	if len(z.Questions) == 0 {
		return Instance{}, ErrEmptyPool
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	selected := z.Questions
	if z.PoolSize > 0 && z.PoolSize < len(z.Questions) {
		perm := g.rnd.Perm(len(z.Questions))
		selected = make([]Question, 0, z.PoolSize)
		for _, i := range perm[:z.PoolSize] {
			selected = append(selected, z.Questions[i])
		}
	}

	inst := Instance{
		QuizID:      z.ID,
		QuestionIDs: make([]string, 0, len(selected)),
		OptionMaps:  make(map[string][]int, len(selected)),
	}
	for _, q := range selected {
		inst.QuestionIDs = append(inst.QuestionIDs, q.ID)
		// A zero-option question yields an empty map, not an error.
		m := make([]int, len(q.Options))
		if z.RandomizeAnswers {
			copy(m, g.rnd.Perm(len(q.Options)))
		} else {
			for i := range m {
				m[i] = i
			}
		}
		inst.OptionMaps[q.ID] = m
	}
	inst.Fingerprint = ComputeFingerprint(inst)
	return inst, nil
}

// DisplayOptions returns the question's options in the instance's display
// order. Positions outside the map are skipped (defends against a mangled
// stored instance rather than panicking).
func DisplayOptions(q Question, optionMap []int) []Option {
	out := make([]Option, 0, len(optionMap))
	for _, canonical := range optionMap {
		if canonical < 0 || canonical >= len(q.Options) {
			continue
		}
		out = append(out, q.Options[canonical])
	}
	return out
}
