package testing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/imamik/cdk-addons/internal/addons"
)

// StorageClassTemplate renders a storage class named by sc_name.
const StorageClassTemplate = `apiVersion: storage.k8s.io/v1
kind: StorageClass
metadata:
  name: {{ .sc_name }}
  annotations:
    storageclass.kubernetes.io/is-default-class: "{{ .default }}"
provisioner: example.com/{{ .sc_name }}
`

// CatalogLibrary writes a stub template library covering every template of
// catalog into a temp directory and returns it. Each plain template renders
// one ConfigMap in kube-system named after the template file; storage class
// templates render StorageClassTemplate. DNS templates also render the DNS
// Service using dns_ip.
func CatalogLibrary(t *testing.T, catalog []addons.Category) string {
	t.Helper()
	files := map[string]string{}
	for _, c := range catalog {
		for _, tpl := range c.Templates {
			switch {
			case tpl.StorageClass != "":
				files[tpl.Ref.Name] = StorageClassTemplate
			case c.DNS:
				files[tpl.Ref.Name] = configMap(tpl.Ref.Name) + dnsService
			default:
				files[tpl.Ref.Name] = configMap(tpl.Ref.Name)
			}
		}
	}
	return WriteFiles(t, t.TempDir(), files)
}

// StubName is the ConfigMap name CatalogLibrary renders for a template file.
func StubName(template string) string {
	name := template
	for _, ext := range []string{".yaml", ".yml"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func configMap(template string) string {
	return fmt.Sprintf(`apiVersion: v1
kind: ConfigMap
metadata:
  name: %s
  namespace: kube-system
data:
  arch: "{{ .arch }}"
  nodes: "{{ .num_nodes }}"
`, StubName(template))
}

const dnsService = `---
apiVersion: v1
kind: Service
metadata:
  name: kube-dns
  namespace: kube-system
spec:
  clusterIP: {{ .dns_ip }}
`
