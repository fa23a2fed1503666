package tasks

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrBadExpression  = errors.New("invalid mathematical expression")
)

// Evaluate computes an arithmetic expression with + - * / % ^, parentheses, unary
// minus and decimals. ^ is right-associative and binds tighter than unary minus.
func Evaluate(expr string) (float64, error) {
	p := &parser{src: expr}
	p.skip()
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	p.skip()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q", ErrBadExpression, p.src[p.pos])
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result is not a finite number", ErrBadExpression)
	}
	return v, nil
}

// FormatNumber prints integral values without decimals and trims float noise.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	r := math.Round(v*1e10) / 1e10
	return strconv.FormatFloat(r, 'f', -1, 64)
}

type parser struct {
	src   string
	pos   int
	depth int
}

const maxDepth = 64

func (p *parser) skip() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skip()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) sum() (float64, error) {
	left, err := p.product()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.product()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) product() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left = math.Mod(left, right)
		}
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	if c == '(' {
		p.depth++
		if p.depth > maxDepth {
			return 0, fmt.Errorf("%w: nested too deeply", ErrBadExpression)
		}
		p.pos++
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing )", ErrBadExpression)
		}
		p.pos++
		p.depth--
		return v, nil
	}

	start := p.pos
	dot := false
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '.' && !dot {
			dot = true
		} else if ch < '0' || ch > '9' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		if p.pos >= len(p.src) {
			return 0, fmt.Errorf("%w: unexpected end", ErrBadExpression)
		}
		return 0, fmt.Errorf("%w: unexpected %q", ErrBadExpression, p.src[p.pos])
	}
	lit := p.src[start:p.pos]
	if lit == "." {
		return 0, fmt.Errorf("%w: lone decimal point", ErrBadExpression)
	}
	return strconv.ParseFloat(lit, 64)
}
