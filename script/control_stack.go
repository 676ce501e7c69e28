package script

type controlFrame struct {
	condition     bool
	parentExecute bool
}

func (f controlFrame) execute() bool {
	return f.parentExecute && f.condition
}

// ControlStack tracks the nested IF / NOTIF / ELSE / ENDIF branches. A branch
// executes when its own condition holds and its enclosing branch executes.
type ControlStack struct {
	frames []controlFrame
}

// Push opens a branch with the given condition.
func (s *ControlStack) Push(condition bool) {
	s.frames = append(s.frames, controlFrame{condition: condition, parentExecute: s.Execute()})
}

// Toggle inverts the condition of the innermost branch. It returns false when no branch is open.
func (s *ControlStack) Toggle() bool {
	if len(s.frames) == 0 {
		return false
	}

	top := &s.frames[len(s.frames)-1]
	top.condition = !top.condition

	return true
}

// Pop closes the innermost branch. It returns false when no branch is open.
func (s *ControlStack) Pop() bool {
	if len(s.frames) == 0 {
		return false
	}

	s.frames = s.frames[:len(s.frames)-1]

	return true
}

// Execute reports whether commands at the current nesting level run.
func (s *ControlStack) Execute() bool {
	if len(s.frames) == 0 {
		return true
	}

	return s.frames[len(s.frames)-1].execute()
}

func (s *ControlStack) IsEmpty() bool {
	return len(s.frames) == 0
}

func (s *ControlStack) Depth() int {
	return len(s.frames)
}

func (s *ControlStack) Reset() {
	s.frames = s.frames[:0]
}
