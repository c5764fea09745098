package preset

import (
	"fmt"
	"strings"

	"github.com/livebud/sfcmod/internal/script"
	"github.com/livebud/sfcmod/internal/transform"
)

func addUseStrict(file transform.FileInfo, api *script.File, params transform.Params) (string, error) {
	statements := api.Statements()
	if len(statements) == 0 || api.HasDirective("use strict") {
		return "", nil
	}
	quote := "'"
	if params["quote"] == "double" {
		quote = `"`
	}
	// Comments above the first statement end up above the directive
	api.InsertBefore(statements[0].Start, quote+"use strict"+quote+";\n")
	return api.String()
}

const oldPackage = "@orgname/old-package"

func importPath(name string) (string, error) {
	switch {
	case strings.HasPrefix(name, "Rev"):
		return "@new-name/components/" + strings.TrimPrefix(name, "Rev"), nil
	case strings.HasPrefix(name, "Icon"):
		return "@new-name/icons/" + name, nil
	}
	switch name {
	case "icons":
		return "@new-name/main", nil
	case "illustrationPlugin":
		return "@new-name/plugins/illustration", nil
	case "localePlugin":
		return "@new-name/plugins/locale", nil
	case "emitter":
		return "@new-name/utils/tracking", nil
	case "getPhoneNumberToE164", "getPhoneNumberInfos", "validPhoneNumber":
		return "@new-name/components/InputPhone", nil
	case "makeValidate", "matchingRegExp", "maxLength", "minLength", "required", "FORM_VALID":
		return "@new-name/components/Form", nil
	case "closeModal", "openModal":
		return "@new-name/components/ModalBase", nil
	case "resetForm", "setFormErrors", "setFormValues", "submitForm":
		return "@new-name/components/Form/Form.actions", nil
	default:
		return "", fmt.Errorf("Missing import name in codemod script: %s", name)
	}
}

func renameImports(file transform.FileInfo, api *script.File, params transform.Params) (string, error) {
	from, _ := params["from"].(string)
	to, _ := params["to"].(string)
	if from == "" && to == "" {
		if err := splitImports(api); err != nil {
			return "", err
		}
	} else {
		if from == "" || to == "" {
			return "", fmt.Errorf("rename-imports: the from and to params go together")
		}
		rewriteSources(api, from, to)
	}
	if !api.Changed() {
		return "", nil
	}
	return api.String()
}

func rewriteSources(api *script.File, from, to string) {
	source := api.Source()
	for _, imp := range api.Imports() {
		if imp.Path != from && !strings.HasPrefix(imp.Path, from+"/") {
			continue
		}
		quote := source[imp.Start : imp.Start+1]
		api.Replace(imp.Start, imp.End, quote+to+strings.TrimPrefix(imp.Path, from)+quote)
	}
}

func splitImports(api *script.File) error {
	source := api.Source()
	statements := api.Statements()
	for _, imp := range api.Imports() {
		quote := source[imp.Start : imp.Start+1]
		switch {
		case imp.Kind == "import" && imp.Path == oldPackage:
			stmt, ok := statementAt(statements, imp.Start)
			if !ok || !strings.HasPrefix(stmt.Text, "import") {
				continue
			}
			replacement, err := splitImport(stmt.Text, quote)
			if err != nil {
				return err
			}
			if replacement != stmt.Text {
				api.Replace(stmt.Start, stmt.End, replacement)
			}
		case imp.Kind == "dynamic" && strings.HasPrefix(imp.Path, oldPackage+"/dist/ssr/"):
			name := imp.Path[strings.LastIndexByte(imp.Path, '/')+1:]
			path, err := importPath(name)
			if err != nil {
				return err
			}
			api.Replace(imp.Start, imp.End, quote+path+quote)
		}
	}
	return nil
}

func statementAt(statements []script.Statement, offset int) (script.Statement, bool) {
	for _, stmt := range statements {
		if stmt.Start <= offset && offset < stmt.End {
			return stmt, true
		}
	}
	return script.Statement{}, false
}

// splitImport turns `import A, { b, c as d } from 'pkg'` into one import per
// named specifier. The default import stays on the old package.
func splitImport(text, quote string) (string, error) {
	open := strings.IndexByte(text, '{')
	end := strings.IndexByte(text, '}')
	if open < 0 || end < open {
		return text, nil
	}
	semicolon := ""
	if strings.HasSuffix(text, ";") {
		semicolon = ";"
	}
	keyword := "import"
	head := strings.TrimSpace(text[len("import"):open])
	if head == "type" || strings.HasPrefix(head, "type ") {
		keyword = "import type"
		head = strings.TrimSpace(strings.TrimPrefix(head, "type"))
	}
	head = strings.TrimSpace(strings.TrimSuffix(head, ","))
	var lines []string
	if head != "" {
		lines = append(lines, fmt.Sprintf("%s %s from %s%s%s%s", keyword, head, quote, oldPackage, quote, semicolon))
	}
	for _, specifier := range strings.Split(text[open+1:end], ",") {
		specifier = strings.TrimSpace(specifier)
		if specifier == "" {
			continue
		}
		fields := strings.Fields(specifier)
		name := fields[0]
		if name == "type" && len(fields) > 1 {
			name = fields[1]
		}
		path, err := importPath(name)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s { %s } from %s%s%s%s", keyword, specifier, quote, path, quote, semicolon))
	}
	return strings.Join(lines, "\n"), nil
}

func identityScript(file transform.FileInfo, api *script.File, params transform.Params) (string, error) {
	return "", nil
}
