package lockscript

import (
    "fmt"
    "strings"
)

// Compiler compiles LockScript DSL to bytecode
type Compiler struct {
    lexer  *Lexer
    parser *Parser
}

// NewCompiler creates a new LockScript compiler
func NewCompiler() *Compiler {
    return &Compiler{
        lexer:  NewLexer(),
        parser: NewParser(),
    }
}

// Parse parses LockScript source into AST
func (c *Compiler) Parse(source string) (*AST, error) {
    tokens, err := c.lexer.Tokenize(source)
    if err != nil {
        return nil, err
    }
    
    return c.parser.Parse(tokens)
}

// Compile compiles AST to bytecode
func (c *Compiler) Compile(ast *AST) ([]byte, error) {
    var bytecode []byte
    
    for _, node := range ast.Nodes {
        compiled, err := c.compileNode(node)
        if err != nil {
            return nil, err
        }
        bytecode = append(bytecode, compiled...)
    }
    
    return bytecode, nil
}

// Validate performs static analysis on AST
func (c *Compiler) Validate(ast *AST) error {
    validator := NewValidator()
    return validator.Validate(ast)
}

func (c *Compiler) compileNode(node ASTNode) ([]byte, error) {
    switch n := node.(type) {
    case *IfNode:
        return c.compileIf(n)
    case *RequireNode:
        return c.compileRequire(n)
    case *TransferNode:
        return c.compileTransfer(n)
    case *CallNode:
        return c.compileCall(n)
    default:
        return nil, fmt.Errorf("unknown node type: %T", node)
    }
}

func (c *Compiler) compileIf(node *IfNode) ([]byte, error) {
    // Compile IF statement
    return nil, nil
}

func (c *Compiler) compileRequire(node *RequireNode) ([]byte, error) {
    // Compile REQUIRE statement
    return nil, nil
}

func (c *Compiler) compileTransfer(node *TransferNode) ([]byte, error) {
    // Compile TRANSFER statement
    return nil, nil
}

func (c *Compiler) compileCall(node *CallNode) ([]byte, error) {
    // Compile function call
    return nil, nil
}