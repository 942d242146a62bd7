package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"
	"github.com/marionauta/automerge"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("actor"),
	readline.PcItem("put"),
	readline.PcItem("putmap"),
	readline.PcItem("putlist"),
	readline.PcItem("puttext"),
	readline.PcItem("get"),
	readline.PcItem("del"),
	readline.PcItem("inc"),
	readline.PcItem("begin"),
	readline.PcItem("commit"),
	readline.PcItem("rollback"),
	readline.PcItem("patches"),
	readline.PcItem("show"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// parseValue turns a REPL token into a document value: quoted string,
// integer, float, true/false/null, or a bare string.
func parseValue(tok string) automerge.Value {
	switch tok {
	case "null":
		return automerge.Null()
	case "true":
		return automerge.Bool(true)
	case "false":
		return automerge.Bool(false)
	}
	if s, err := strconv.Unquote(tok); err == nil {
		return automerge.Str(s)
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return automerge.Int(n)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return automerge.Float(f)
	}
	return automerge.Str(tok)
}

func plain(v automerge.Value) any {
	switch v.Kind() {
	case automerge.KindBool:
		b, _ := v.Bool()
		return b
	case automerge.KindInt:
		n, _ := v.Int()
		return n
	case automerge.KindUint:
		n, _ := v.Uint()
		return n
	case automerge.KindFloat:
		f, _ := v.Float()
		return f
	case automerge.KindStr:
		s, _ := v.Str()
		return s
	case automerge.KindBytes:
		b, _ := v.Bytes()
		return fmt.Sprintf("0x%x", b)
	case automerge.KindCounter:
		n, _ := v.Counter()
		return fmt.Sprintf("counter(%d)", n)
	case automerge.KindTimestamp:
		n, _ := v.Timestamp()
		return fmt.Sprintf("timestamp(%d)", n)
	}
	return nil
}

func winner(res *automerge.Result) (automerge.Value, bool) {
	vals, err := res.Values()
	if err != nil || len(vals) == 0 {
		return automerge.Null(), false
	}
	return vals[len(vals)-1], true
}

// render walks a container into plain Go data for JSON printing.
func render(doc *automerge.Doc, obj automerge.ObjRef) (any, error) {
	if obj.Kind() == automerge.Text {
		v, ok := winner(doc.Text(obj))
		if !ok {
			return "", nil
		}
		s, _ := v.Str()
		return s, nil
	}

	if obj.Kind() == automerge.List {
		v, _ := winner(doc.Length(obj))
		n, _ := v.Uint()
		out := make([]any, 0, n)
		for i := 0; i < int(n); i++ {
			if cell, ok := winner(doc.ListGet(obj, i)); ok {
				out = append(out, renderValue(doc, cell))
			}
		}
		return out, nil
	}

	out := map[string]any{}
	keys, err := doc.Keys(obj).Values()
	if err != nil {
		return nil, err
	}
	for _, kv := range keys {
		key, _ := kv.Str()
		if cell, ok := winner(doc.MapGet(obj, key)); ok {
			out[key] = renderValue(doc, cell)
		}
	}
	return out, nil
}

func renderValue(doc *automerge.Doc, v automerge.Value) any {
	if ref, ok := automerge.RefFromValue(v); ok {
		nested, err := render(doc, ref)
		if err != nil {
			return err.Error()
		}
		return nested
	}
	return plain(v)
}

func showPatches(patches []automerge.Patch) {
	for _, p := range patches {
		var path strings.Builder
		for _, step := range p.Path {
			if step.InMap {
				path.WriteString("/" + step.Key)
			} else {
				path.WriteString("/" + strconv.Itoa(step.Index))
			}
		}
		fmt.Printf("%s %s %#v\n", p.Obj, path.String(), p.Action)
	}
}

func fail(r *automerge.Result) bool {
	if r.Status() == automerge.Error {
		_, _ = fmt.Fprintln(os.Stderr, r.ErrorMessage())
		r.Release()
		return true
	}
	return false
}

func main() {

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     "/tmp/automerge-repl.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	doc := automerge.Create()
	obs := automerge.NewObserver()
	var tx *automerge.Tx

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		args := strings.Split(line, " ")
		cmd := args[0]
		args = args[1:]
		switch cmd {
		case "help":
			fmt.Println("actor [hex16] | put k v | putmap/putlist/puttext k | get k | del k |")
			fmt.Println("inc k delta | begin | commit | rollback | patches | show | exit")
		case "exit", "quit":
			_ = doc.Close()
			os.Exit(0)
		case "actor":
			if len(args) == 0 {
				res := doc.Actor()
				if !fail(res) {
					if v, ok := winner(res); ok {
						s, _ := v.Str()
						fmt.Println(s)
					}
				}
				continue
			}
			fail(doc.Config("actor", args[0]))
		case "put":
			if len(args) < 2 {
				_, _ = fmt.Fprintln(os.Stderr, "put <key> <value>")
				continue
			}
			fail(doc.MapSet(automerge.Root, args[0], parseValue(strings.Join(args[1:], " "))))
		case "putmap", "putlist", "puttext":
			if len(args) < 1 {
				_, _ = fmt.Fprintln(os.Stderr, cmd+" <key>")
				continue
			}
			kind := automerge.Map
			switch cmd {
			case "putlist":
				kind = automerge.List
			case "puttext":
				kind = automerge.Text
			}
			res := doc.MapSetObject(automerge.Root, args[0], kind)
			if !fail(res) {
				ref, _ := res.Obj()
				fmt.Println(ref)
			}
		case "get":
			if len(args) < 1 {
				continue
			}
			res := doc.MapGet(automerge.Root, args[0])
			if !fail(res) {
				vals, _ := res.Values()
				for _, v := range vals {
					fmt.Println(v)
				}
			}
		case "del":
			if len(args) < 1 {
				continue
			}
			fail(doc.MapDelete(automerge.Root, args[0]))
		case "inc":
			if len(args) < 2 {
				continue
			}
			delta, _ := strconv.ParseInt(args[1], 10, 64)
			fail(doc.MapIncrement(automerge.Root, args[0], delta))
		case "begin":
			if tx != nil {
				_, _ = fmt.Fprintln(os.Stderr, "transaction already open")
				continue
			}
			tx, err = doc.Begin(obs)
			if err != nil {
				_, _ = fmt.Fprintln(os.Stderr, err.Error())
				tx = nil
			}
		case "commit":
			if tx == nil {
				_, _ = fmt.Fprintln(os.Stderr, "no transaction")
				continue
			}
			fail(tx.Commit())
			tx = nil
			showPatches(obs.Take())
		case "rollback":
			if tx == nil {
				continue
			}
			_ = tx.Rollback()
			tx = nil
			obs.Take()
		case "patches":
			showPatches(obs.Take())
		case "show":
			tree, err := render(doc, automerge.Root)
			if err != nil {
				_, _ = fmt.Fprintln(os.Stderr, err.Error())
				continue
			}
			jsn, _ := json.MarshalIndent(tree, "", "  ")
			fmt.Println(string(jsn))
		case "":
		default:
			_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
		}
	}
}
