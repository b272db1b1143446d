package synth

import (
	"fmt"
	"strings"

	"appforge/internal/naming"
	"appforge/internal/schema"
)

// buildIndexHTML composes the generated project's single-page UI: a create
// form with one typed input per data field, a listing table in schema order
// with the id column first, a confirm-guarded delete control and an inline
// error banner. Pure function of the schema.
func buildIndexHTML(def schema.SchemaDefinition) string {
	route := naming.ToSnakeCase(def.EntityName)
	title := naming.ToTitleCase(def.EntityName)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&b, "    <title>%s Manager</title>\n", title)
	b.WriteString(`    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        table { border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ccc; padding: 6px 12px; text-align: left; }
        form div { margin-bottom: 8px; }
        #error-banner { display: none; color: #fff; background: #c0392b; padding: 8px 12px; margin-bottom: 12px; }
    </style>
`)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "    <h1>%s Management System</h1>\n", title)
	b.WriteString("    <div id=\"error-banner\"></div>\n")

	if def.OperationEnabled(schema.OpCreate) {
		b.WriteString(buildCreateForm(def))
	}
	b.WriteString(buildListingTable(def))
	b.WriteString(buildPageScript(def, route))

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// buildCreateForm renders one labeled input per data field. The synthetic id
// never gets an input.
func buildCreateForm(def schema.SchemaDefinition) string {
	var b strings.Builder
	b.WriteString("    <form id=\"create-form\">\n")
	for _, f := range def.DataFields() {
		mapping, _ := schema.MapType(f.Type)
		required := ""
		if f.Required {
			required = " required"
		}
		b.WriteString("        <div>\n")
		fmt.Fprintf(&b, "            <label for=\"%s\">%s</label>\n", f.Name, f.Label)
		switch mapping.Input {
		case "text":
			if f.Type == schema.TypeText {
				fmt.Fprintf(&b, "            <textarea id=\"%s\" name=\"%s\"%s></textarea>\n", f.Name, f.Name, required)
			} else {
				fmt.Fprintf(&b, "            <input type=\"text\" id=\"%s\" name=\"%s\"%s>\n", f.Name, f.Name, required)
			}
		default:
			fmt.Fprintf(&b, "            <input type=\"%s\" id=\"%s\" name=\"%s\"%s>\n", mapping.Input, f.Name, f.Name, required)
		}
		b.WriteString("        </div>\n")
	}
	b.WriteString("        <button type=\"submit\">Create</button>\n")
	b.WriteString("    </form>\n")
	return b.String()
}

func buildListingTable(def schema.SchemaDefinition) string {
	var b strings.Builder
	b.WriteString("    <table id=\"item-table\">\n        <thead>\n            <tr>\n")
	for _, f := range def.TableColumns() {
		fmt.Fprintf(&b, "                <th>%s</th>\n", f.Label)
	}
	if def.OperationEnabled(schema.OpDelete) {
		b.WriteString("                <th></th>\n")
	}
	b.WriteString("            </tr>\n        </thead>\n        <tbody></tbody>\n    </table>\n")
	return b.String()
}

func buildPageScript(def schema.SchemaDefinition, route string) string {
	columns := def.TableColumns()
	names := make([]string, len(columns))
	for i, f := range columns {
		names[i] = fmt.Sprintf("%q", f.Name)
	}

	var b strings.Builder
	b.WriteString("    <script>\n")
	fmt.Fprintf(&b, "        const apiBase = '/%s/';\n", route)
	fmt.Fprintf(&b, "        const columns = [%s];\n", strings.Join(names, ", "))
	b.WriteString(`        const banner = document.getElementById('error-banner');

        function showError(message) {
            banner.textContent = message;
            banner.style.display = 'block';
        }

        function clearError() {
            banner.style.display = 'none';
        }

        async function loadItems() {
            const res = await fetch(apiBase);
            if (!res.ok) { showError('Failed to load items'); return; }
            const items = await res.json();
            const tbody = document.querySelector('#item-table tbody');
            tbody.innerHTML = '';
            for (const item of items) {
                const tr = document.createElement('tr');
                for (const col of columns) {
                    const td = document.createElement('td');
                    td.textContent = item[col];
                    tr.appendChild(td);
                }
`)
	if def.OperationEnabled(schema.OpDelete) {
		b.WriteString(`                const td = document.createElement('td');
                const btn = document.createElement('button');
                btn.textContent = 'Delete';
                btn.onclick = async () => {
                    if (!confirm('Delete this item?')) return;
                    const res = await fetch(apiBase + item.id, { method: 'DELETE' });
                    if (!res.ok) { showError('Delete failed'); return; }
                    clearError();
                    loadItems();
                };
                td.appendChild(btn);
                tr.appendChild(td);
`)
	}
	b.WriteString(`                tbody.appendChild(tr);
            }
        }
`)
	if def.OperationEnabled(schema.OpCreate) {
		b.WriteString(`
        document.getElementById('create-form').onsubmit = async (e) => {
            e.preventDefault();
            const res = await fetch(apiBase, {
                method: 'POST',
                body: new URLSearchParams(new FormData(e.target)),
            });
            if (!res.ok) {
                const body = await res.json().catch(() => ({}));
                showError(body.error || 'Create failed');
                return;
            }
            clearError();
            e.target.reset();
            loadItems();
        };
`)
	}
	b.WriteString(`
        loadItems();
    </script>
`)
	return b.String()
}
