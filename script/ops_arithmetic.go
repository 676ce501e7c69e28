package script

func registerArithmeticOps(register func(byte, opcodeFunc)) {
	for _, op := range []byte{OP_1ADD, OP_1SUB, OP_NEGATE, OP_ABS, OP_NOT, OP_0NOTEQUAL} {
		register(op, opUnaryNumber)
	}

	for _, op := range []byte{
		OP_ADD, OP_SUB, OP_BOOLAND, OP_BOOLOR, OP_NUMEQUAL, OP_NUMEQUALVERIFY, OP_NUMNOTEQUAL,
		OP_LESSTHAN, OP_GREATERTHAN, OP_LESSTHANOREQUAL, OP_GREATERTHANOREQUAL, OP_MIN, OP_MAX,
	} {
		register(op, opBinaryNumber)
	}

	register(OP_WITHIN, opWithin)
}

func opUnaryNumber(p *Processor, _ []byte, cmd Command) error {
	a, ok := p.popNumber()
	if !ok {
		return nil
	}

	var result int64

	switch cmd.Opcode {
	case OP_1ADD:
		result = a + 1
	case OP_1SUB:
		result = a - 1
	case OP_NEGATE:
		result = -a
	case OP_ABS:
		result = a
		if a < 0 {
			result = -a
		}
	case OP_NOT:
		result = boolNumber(a == 0)
	case OP_0NOTEQUAL:
		result = boolNumber(a != 0)
	}

	p.push(encodeNumber(result))

	return nil
}

func opBinaryNumber(p *Processor, _ []byte, cmd Command) error {
	if !p.require(2) {
		return nil
	}

	b, ok := p.popNumber()
	if !ok {
		return nil
	}

	a, ok := p.popNumber()
	if !ok {
		return nil
	}

	var result int64

	switch cmd.Opcode {
	case OP_ADD:
		result = a + b
	case OP_SUB:
		result = a - b
	case OP_BOOLAND:
		result = boolNumber(a != 0 && b != 0)
	case OP_BOOLOR:
		result = boolNumber(a != 0 || b != 0)
	case OP_NUMEQUAL, OP_NUMEQUALVERIFY:
		result = boolNumber(a == b)
	case OP_NUMNOTEQUAL:
		result = boolNumber(a != b)
	case OP_LESSTHAN:
		result = boolNumber(a < b)
	case OP_GREATERTHAN:
		result = boolNumber(a > b)
	case OP_LESSTHANOREQUAL:
		result = boolNumber(a <= b)
	case OP_GREATERTHANOREQUAL:
		result = boolNumber(a >= b)
	case OP_MIN:
		result = min(a, b)
	case OP_MAX:
		result = max(a, b)
	}

	p.push(encodeNumber(result))

	if cmd.Opcode == OP_NUMEQUALVERIFY {
		p.verifyTop()
	}

	return nil
}

// x min max -> min <= x < max
func opWithin(p *Processor, _ []byte, _ Command) error {
	if !p.require(3) {
		return nil
	}

	upper, ok := p.popNumber()
	if !ok {
		return nil
	}

	lower, ok := p.popNumber()
	if !ok {
		return nil
	}

	x, ok := p.popNumber()
	if !ok {
		return nil
	}

	p.push(fromBool(lower <= x && x < upper))

	return nil
}

func boolNumber(v bool) int64 {
	if v {
		return 1
	}

	return 0
}
