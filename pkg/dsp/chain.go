package dsp

// Chain is an ordered list of Processors. When disabled, Process copies
// input to output bytewise (the spec's "bypass" contract); when enabled,
// processors run in insertion order, each one's output feeding the next,
// and any individually-disabled processor is skipped.
type Chain struct {
	processors []Processor
	enabled    bool
	scratchA   []float32
	scratchB   []float32
}

// NewChain returns an empty, enabled chain. An empty enabled chain behaves
// as passthrough, per the spec's edge case.
func NewChain() *Chain {
	return &Chain{enabled: true}
}

// Add appends processor to the end of the chain.
func (c *Chain) Add(p Processor) {
	c.processors = append(c.processors, p)
}

// Remove deletes and returns the first processor with the given name, or
// nil if none matches.
func (c *Chain) Remove(name string) Processor {
	for i, p := range c.processors {
		if p.Name() == name {
			c.processors = append(c.processors[:i], c.processors[i+1:]...)
			return p
		}
	}
	return nil
}

// SetEnabled toggles whether the chain runs its processors at all.
func (c *Chain) SetEnabled(v bool) {
	c.enabled = v
}

// Enabled reports the chain's own bypass flag (independent of each
// processor's individual Enabled()).
func (c *Chain) Enabled() bool {
	return c.enabled
}

// Reset resets every processor's internal state, e.g. on track change.
func (c *Chain) Reset() {
	for _, p := range c.processors {
		p.Reset()
	}
}

// Process runs input through the chain into output. input and output must
// have equal length; when the chain is disabled, or holds no enabled
// processors, output is a bytewise copy of input.
func (c *Chain) Process(input, output []float32) error {
	if len(input) != len(output) {
		return &ErrSizeMismatch{Processor: "chain", InputLen: len(input), OutputLen: len(output)}
	}

	if !c.enabled || len(c.processors) == 0 {
		copy(output, input)
		return nil
	}

	if cap(c.scratchA) < len(input) {
		c.scratchA = make([]float32, len(input))
		c.scratchB = make([]float32, len(input))
	}
	cur := c.scratchA[:len(input)]
	next := c.scratchB[:len(input)]
	copy(cur, input)

	ranAny := false
	for _, p := range c.processors {
		if !p.Enabled() {
			continue
		}
		if err := p.Process(cur, next); err != nil {
			return err
		}
		cur, next = next, cur
		ranAny = true
	}

	if !ranAny {
		copy(output, input)
		return nil
	}
	copy(output, cur)
	return nil
}
