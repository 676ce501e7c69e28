package script

import "bytes"

func registerStackOps(register func(byte, opcodeFunc)) {
	register(OP_TOALTSTACK, opToAltStack)
	register(OP_FROMALTSTACK, opFromAltStack)
	register(OP_2DROP, op2Drop)
	register(OP_2DUP, op2Dup)
	register(OP_3DUP, op3Dup)
	register(OP_2OVER, op2Over)
	register(OP_2ROT, op2Rot)
	register(OP_2SWAP, op2Swap)
	register(OP_IFDUP, opIfDup)
	register(OP_DEPTH, opDepth)
	register(OP_DROP, opDrop)
	register(OP_DUP, opDup)
	register(OP_NIP, opNip)
	register(OP_OVER, opOver)
	register(OP_PICK, opPickRoll)
	register(OP_ROLL, opPickRoll)
	register(OP_ROT, opRot)
	register(OP_SWAP, opSwap)
	register(OP_TUCK, opTuck)
	register(OP_SIZE, opSize)
	register(OP_EQUAL, opEqual)
	register(OP_EQUALVERIFY, opEqual)
}

func opToAltStack(p *Processor, _ []byte, _ Command) error {
	if item, ok := p.pop(); ok {
		p.altStack = append(p.altStack, item)
	}

	return nil
}

func opFromAltStack(p *Processor, _ []byte, _ Command) error {
	if len(p.altStack) == 0 {
		p.fail()
		return nil
	}

	p.push(p.altStack[len(p.altStack)-1])
	p.altStack = p.altStack[:len(p.altStack)-1]

	return nil
}

func op2Drop(p *Processor, _ []byte, _ Command) error {
	if p.require(2) {
		p.dataStack = p.dataStack[:len(p.dataStack)-2]
	}

	return nil
}

// x1 x2 -> x1 x2 x1 x2
func op2Dup(p *Processor, _ []byte, _ Command) error {
	if p.require(2) {
		x1, x2 := p.peek(1), p.peek(0)
		p.push(x1)
		p.push(x2)
	}

	return nil
}

// x1 x2 x3 -> x1 x2 x3 x1 x2 x3
func op3Dup(p *Processor, _ []byte, _ Command) error {
	if p.require(3) {
		x1, x2, x3 := p.peek(2), p.peek(1), p.peek(0)
		p.push(x1)
		p.push(x2)
		p.push(x3)
	}

	return nil
}

// x1 x2 x3 x4 -> x1 x2 x3 x4 x1 x2
func op2Over(p *Processor, _ []byte, _ Command) error {
	if p.require(4) {
		x1, x2 := p.peek(3), p.peek(2)
		p.push(x1)
		p.push(x2)
	}

	return nil
}

// x1 x2 x3 x4 x5 x6 -> x3 x4 x5 x6 x1 x2
func op2Rot(p *Processor, _ []byte, _ Command) error {
	if !p.require(6) {
		return nil
	}

	n := len(p.dataStack)
	x1, x2 := p.dataStack[n-6], p.dataStack[n-5]
	copy(p.dataStack[n-6:], p.dataStack[n-4:])
	p.dataStack[n-2], p.dataStack[n-1] = x1, x2

	return nil
}

// x1 x2 x3 x4 -> x3 x4 x1 x2
func op2Swap(p *Processor, _ []byte, _ Command) error {
	if !p.require(4) {
		return nil
	}

	s := p.dataStack[len(p.dataStack)-4:]
	s[0], s[1], s[2], s[3] = s[2], s[3], s[0], s[1]

	return nil
}

func opIfDup(p *Processor, _ []byte, _ Command) error {
	if p.require(1) && asBool(p.peek(0)) {
		p.push(p.peek(0))
	}

	return nil
}

func opDepth(p *Processor, _ []byte, _ Command) error {
	p.push(encodeNumber(int64(len(p.dataStack))))
	return nil
}

func opDrop(p *Processor, _ []byte, _ Command) error {
	p.pop()
	return nil
}

func opDup(p *Processor, _ []byte, _ Command) error {
	if p.require(1) {
		p.push(p.peek(0))
	}

	return nil
}

// x1 x2 -> x2
func opNip(p *Processor, _ []byte, _ Command) error {
	if !p.require(2) {
		return nil
	}

	n := len(p.dataStack)
	p.dataStack[n-2] = p.dataStack[n-1]
	p.dataStack = p.dataStack[:n-1]

	return nil
}

// x1 x2 -> x1 x2 x1
func opOver(p *Processor, _ []byte, _ Command) error {
	if p.require(2) {
		p.push(p.peek(1))
	}

	return nil
}

// OP_PICK copies and OP_ROLL moves the item n below the top, n read from the top of the stack.
func opPickRoll(p *Processor, _ []byte, cmd Command) error {
	n, ok := p.popNumber()
	if !ok {
		return nil
	}

	if n < 0 || n >= int64(len(p.dataStack)) {
		p.fail()
		return nil
	}

	index := len(p.dataStack) - 1 - int(n)
	item := p.dataStack[index]

	if cmd.Opcode == OP_ROLL {
		p.dataStack = append(p.dataStack[:index], p.dataStack[index+1:]...)
	}

	p.push(item)

	return nil
}

// x1 x2 x3 -> x2 x3 x1
func opRot(p *Processor, _ []byte, _ Command) error {
	if !p.require(3) {
		return nil
	}

	s := p.dataStack[len(p.dataStack)-3:]
	s[0], s[1], s[2] = s[1], s[2], s[0]

	return nil
}

func opSwap(p *Processor, _ []byte, _ Command) error {
	if !p.require(2) {
		return nil
	}

	s := p.dataStack[len(p.dataStack)-2:]
	s[0], s[1] = s[1], s[0]

	return nil
}

// x1 x2 -> x2 x1 x2
func opTuck(p *Processor, _ []byte, _ Command) error {
	if !p.require(2) {
		return nil
	}

	n := len(p.dataStack)
	x1, x2 := p.dataStack[n-2], p.dataStack[n-1]
	p.dataStack[n-2], p.dataStack[n-1] = x2, x1
	p.push(x2)

	return nil
}

func opSize(p *Processor, _ []byte, _ Command) error {
	if p.require(1) {
		p.push(encodeNumber(int64(len(p.peek(0)))))
	}

	return nil
}

func opEqual(p *Processor, _ []byte, cmd Command) error {
	if !p.require(2) {
		return nil
	}

	x2, _ := p.pop()
	x1, _ := p.pop()
	p.push(fromBool(bytes.Equal(x1, x2)))

	if cmd.Opcode == OP_EQUALVERIFY {
		p.verifyTop()
	}

	return nil
}
