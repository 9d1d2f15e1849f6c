package lockbox

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

// LockScriptCompiler compiles and executes LockScript DSL
type LockScriptCompiler struct {
	maxScriptSize    int
	maxExecutionTime time.Duration
	
	// Built-in functions
	builtins map[string]BuiltinFunc
}

// BuiltinFunc represents a built-in function
type BuiltinFunc func(env *ScriptEnvironment, args []interface{}) (interface{}, error)

// CompiledScript represents a compiled LockScript
type CompiledScript struct {
	Instructions []Instruction
	Metadata     map[string]string
}

// Instruction represents a single instruction in the compiled script
type Instruction struct {
	OpCode   OpCode
	Operands []interface{}
}

// OpCode represents an operation code
type OpCode byte

const (
	OpPush OpCode = iota
	OpPop
	OpLoad
	OpStore
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpGt
	OpAnd
	OpOr
	OpNot
	OpIf
	OpElse
	OpEndIf
	OpCall
	OpReturn
	OpTimeCheck
	OpSigVerify
	OpMultiSigVerify
	OpHashCheck
	OpGeoCheck
)

// ScriptEnvironment represents the execution environment
type ScriptEnvironment struct {
	Variables map[string]interface{}
	Asset     *LockedAsset
	Stack     []interface{}
}

// ExecutionResult represents the result of script execution
type ExecutionResult struct {
	Success bool
	Value   interface{}
	Error   error
}

// NewLockScriptCompiler creates a new compiler
func NewLockScriptCompiler(maxScriptSize int, maxExecutionTime time.Duration) (*LockScriptCompiler, error) {
	c := &LockScriptCompiler{
		maxScriptSize:    maxScriptSize,
		maxExecutionTime: maxExecutionTime,
		builtins:         make(map[string]BuiltinFunc),
	}

	// Register built-in functions
	c.registerBuiltins()

	return c, nil
}

// Initialize initializes the compiler
func (c *LockScriptCompiler) Initialize() error {
	// Initialize parser, lexer, etc.
	return nil
}

// Compile compiles LockScript source code
func (c *LockScriptCompiler) Compile(source []byte) (*CompiledScript, error) {
	if len(source) > c.maxScriptSize {
		return nil, errors.New("script size exceeds maximum")
	}

	// Parse the source code
	tokens, err := c.tokenize(source)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	// Build AST
	ast, err := c.parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	// Generate instructions
	instructions, err := c.generate(ast)
	if err != nil {
		return nil, fmt.Errorf("code generation failed: %w", err)
	}

	return &CompiledScript{
		Instructions: instructions,
		Metadata:     make(map[string]string),
	}, nil
}

// Execute executes a compiled script
func (c *LockScriptCompiler) Execute(script *CompiledScript, env *ScriptEnvironment) (*ExecutionResult, error) {
	// Set up execution timeout
	done := make(chan *ExecutionResult, 1)
	go func() {
		result := c.executeInstructions(script, env)
		done <- result
	}()

	select {
	case result := <-done:
		return result, nil
	case <-time.After(c.maxExecutionTime):
		return nil, errors.New("script execution timeout")
	}
}

// executeInstructions executes the compiled instructions
func (c *LockScriptCompiler) executeInstructions(script *CompiledScript, env *ScriptEnvironment) *ExecutionResult {
	for _, inst := range script.Instructions {
		switch inst.OpCode {
		case OpPush:
			env.push(inst.Operands[0])
		case OpPop:
			env.pop()
		case OpLoad:
			name := inst.Operands[0].(string)
			val := env.Get(name)
			env.push(val)
		case OpStore:
			name := inst.Operands[0].(string)
			val := env.pop()
			env.Set(name, val)
		case OpTimeCheck:
			if !c.checkTime(env) {
				return &ExecutionResult{Success: false, Error: errors.New("time check failed")}
			}
		case OpSigVerify:
			if !c.verifySig(env) {
				return &ExecutionResult{Success: false, Error: errors.New("signature verification failed")}
			}
		case OpCall:
			funcName := inst.Operands[0].(string)
			if fn, ok := c.builtins[funcName]; ok {
				args := env.popN(inst.Operands[1].(int))
				result, err := fn(env, args)
				if err != nil {
					return &ExecutionResult{Success: false, Error: err}
				}
				env.push(result)
			}
		// Add more opcode handlers
		}
	}

	// Check final result
	if len(env.Stack) > 0 {
		result := env.pop()
		if b, ok := result.(bool); ok {
			return &ExecutionResult{Success: b, Value: result}
		}
	}

	return &ExecutionResult{Success: true}
}

// Helper methods

func (c *LockScriptCompiler) registerBuiltins() {
	// Time functions
	c.builtins["now"] = func(env *ScriptEnvironment, args []interface{}) (interface{}, error) {
		return time.Now().Unix(), nil
	}
	
	c.builtins["after"] = func(env *ScriptEnvironment, args []interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, errors.New("after() requires 1 argument")
		}
		timestamp := args[0].(int64)
		return time.Now().Unix() > timestamp, nil
	}

	// Crypto functions
	c.builtins["sha256"] = func(env *ScriptEnvironment, args []interface{}) (interface{}, error) {
		// Implementation
		return nil, nil
	}

	// Multi-sig functions
	c.builtins["require_sigs"] = func(env *ScriptEnvironment, args []interface{}) (interface{}, error) {
		// Implementation
		return nil, nil
	}

	// Geographic functions
	c.builtins["check_geo"] = func(env *ScriptEnvironment, args []interface{}) (interface{}, error) {
		// Implementation
		return nil, nil
	}
}

func (c *LockScriptCompiler) tokenize(source []byte) ([]Token, error) {
	// Simple tokenizer implementation
	var tokens []Token
	// ... tokenization logic
	return tokens, nil
}

func (c *LockScriptCompiler) parse(tokens []Token) (*AST, error) {
	// Parser implementation
	ast := &AST{}
	// ... parsing logic
	return ast, nil
}

func (c *LockScriptCompiler) generate(ast *AST) ([]Instruction, error) {
	// Code generation
	var instructions []Instruction
	// ... generation logic
	return instructions, nil
}

func (c *LockScriptCompiler) checkTime(env *ScriptEnvironment) bool {
	// Time validation
	return true
}

func (c *LockScriptCompiler) verifySig(env *ScriptEnvironment) bool {
	// Signature verification
	return true
}

// ScriptEnvironment methods

func NewScriptEnvironment(asset *LockedAsset, data map[string]interface{}) *ScriptEnvironment {
	env := &ScriptEnvironment{
		Variables: make(map[string]interface{}),
		Asset:     asset,
		Stack:     make([]interface{}, 0),
	}
	
	// Initialize with provided data
	for k, v := range data {
		env.Variables[k] = v
	}
	
	// Add asset data
	env.Variables["asset_id"] = asset.ID
	env.Variables["lock_time"] = asset.LockTime.Unix()
	env.Variables["unlock_time"] = asset.UnlockTime.Unix()
	env.Variables["amount"] = asset.Amount
	
	return env
}

func (e *ScriptEnvironment) Get(name string) interface{} {
	return e.Variables[name]
}

func (e *ScriptEnvironment) Set(name string, value interface{}) {
	e.Variables[name] = value
}

func (e *ScriptEnvironment) push(value interface{}) {
	e.Stack = append(e.Stack, value)
}

func (e *ScriptEnvironment) pop() interface{} {
	if len(e.Stack) == 0 {
		return nil
	}
	val := e.Stack[len(e.Stack)-1]
	e.Stack = e.Stack[:len(e.Stack)-1]
	return val
}

func (e *ScriptEnvironment) popN(n int) []interface{} {
	if len(e.Stack) < n {
		return nil
	}
	vals := e.Stack[len(e.Stack)-n:]
	e.Stack = e.Stack[:len(e.Stack)-n]
	return vals
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// TokenType represents the type of token
type TokenType int

const (
	TokenIdent TokenType = iota
	TokenNumber
	TokenString
	TokenOperator
	TokenKeyword
	TokenEOF
)

// AST represents the abstract syntax tree
type AST struct {
	Root Node
}

// Node represents an AST node
type Node interface {
	Type() string
}