package addons

import (
	"github.com/imamik/cdk-addons/internal/templates"
)

// Category names.
const (
	CategoryCoreDNS   = "core-dns"
	CategoryKubeDNS   = "kube-dns"
	CategoryDashboard = "dashboard"
	CategoryGPU       = "gpu"
	CategoryMetrics   = "metrics"
	CategoryCeph      = "ceph"
	CategoryCephFS    = "cephfs"
	CategoryKeystone  = "keystone"
	CategoryOpenStack = "openstack"
	CategoryAWS       = "aws"
	CategoryAzure     = "azure"
	CategoryGCP       = "gcp"
)

func tmpl(names ...string) []Template {
	out := make([]Template, 0, len(names))
	for _, name := range names {
		out = append(out, Template{Ref: templates.Ref{Name: name}})
	}
	return out
}

func storageClass(template, class string, vars templates.Context) Template {
	return Template{
		Ref:          templates.Ref{Name: template, Output: class + "-storageclass.yaml"},
		StorageClass: class,
		Vars:         vars,
	}
}

var dnsIP = Binding{Flag: "dns-ip", Key: "dns_ip", Required: true}

var cephBindings = []Binding{
	{Flag: "ceph-admin-key", Key: "admin_key", Required: true},
	{Flag: "ceph-kubernetes-key", Key: "kubernetes_key", Required: true},
	{Flag: "ceph-mon-hosts", Key: "mon_hosts", Required: true},
	{Flag: "ceph-fsid", Key: "fsid", Required: true},
	{Flag: "ceph-user", Key: "user", Default: "admin"},
}

func extendCeph(ctx templates.Context) (templates.Context, error) {
	raw, _ := ctx["mon_hosts"].(string)
	hosts := make([]any, 0)
	for _, h := range splitHosts(raw) {
		hosts = append(hosts, h)
	}
	return ctx.With(templates.Context{"mon_hosts": hosts}), nil
}

func hasKeystonePolicy(ctx templates.Context) bool {
	policy, _ := ctx["keystone_policy"].(string)
	return policy != ""
}

// Catalog returns every add-on category in render order.
func Catalog() []Category {
	return []Category{
		{
			Name:      CategoryCoreDNS,
			Enabled:   dnsProvider(CategoryCoreDNS),
			Bindings:  []Binding{dnsIP},
			Templates: tmpl("core-dns.yaml"),
			DNS:       true,
		},
		{
			Name:      CategoryKubeDNS,
			Enabled:   dnsProvider(CategoryKubeDNS),
			Bindings:  []Binding{dnsIP},
			Templates: tmpl("kube-dns.yaml"),
			DNS:       true,
		},
		{
			Name:      CategoryDashboard,
			Enabled:   flagEnabled("enable-dashboard"),
			Templates: tmpl("kubernetes-dashboard.yaml"),
		},
		{
			Name:      CategoryGPU,
			Enabled:   flagEnabled("enable-gpu"),
			Templates: tmpl("nvidia-device-plugin.yml"),
		},
		{
			Name:    CategoryMetrics,
			Enabled: flagEnabled("enable-metrics"),
			Templates: tmpl(
				"auth-delegator.yaml",
				"auth-reader.yaml",
				"metrics-apiservice.yaml",
				"metrics-server-deployment.yaml",
				"metrics-server-service.yaml",
				"resource-reader.yaml",
			),
		},
		{
			Name:     CategoryCeph,
			Enabled:  flagEnabled("enable-ceph"),
			Bindings: cephBindings,
			Extend:   extendCeph,
			Templates: append(tmpl(
				"ceph-secret.yaml",
				"csi-config-map.yaml",
				"csi-nodeplugin-rbac.yaml",
				"csi-provisioner-rbac.yaml",
				"csi-rbdplugin.yaml",
				"csi-rbdplugin-provisioner.yaml",
			),
				storageClass("ceph-storageclass.yaml", "ceph-xfs", templates.Context{"fs_type": "xfs"}),
				storageClass("ceph-storageclass.yaml", "ceph-ext4", templates.Context{"fs_type": "ext4"}),
			),
		},
		{
			Name:     CategoryCephFS,
			Enabled:  flagEnabled("enable-ceph", "enable-cephfs"),
			Bindings: cephBindings,
			Extend:   extendCeph,
			Templates: append(tmpl(
				"cephfs-secret.yaml",
				"cephfs-nodeplugin-rbac.yaml",
				"cephfs-provisioner-rbac.yaml",
				"csi-cephfsplugin.yaml",
				"csi-cephfsplugin-provisioner.yaml",
			),
				storageClass("cephfs-storageclass.yaml", "cephfs", nil),
			),
		},
		{
			Name:    CategoryKeystone,
			Enabled: flagEnabled("enable-keystone"),
			Bindings: []Binding{
				{Flag: "keystone-cert-file", Key: "keystone_cert_file", Required: true, Load: base64File},
				{Flag: "keystone-key-file", Key: "keystone_key_file", Required: true, Load: base64File},
				{Flag: "keystone-server-url", Key: "keystone_server_url", Required: true},
				{Flag: "keystone-server-ca", Key: "keystone_server_ca"},
				{Flag: "keystone-policy", Key: "keystone_policy"},
			},
			Templates: append(tmpl(
				"keystone-auth-certs-secret.yaml",
				"keystone-deployment.yaml",
				"keystone-rbac.yaml",
				"keystone-service.yaml",
			), Template{
				Ref:  templates.Ref{Name: "keystone-policy-configmap.yaml", Optional: true},
				When: hasKeystonePolicy,
			}),
		},
		{
			Name:    CategoryOpenStack,
			Enabled: flagEnabled("enable-openstack"),
			Bindings: []Binding{
				{Flag: "openstack-cloud-conf", Key: "cloud_conf", Required: true},
				{Flag: "openstack-endpoint-ca", Key: "endpoint_ca"},
			},
			Templates: append(tmpl(
				"cloud-config-secret.yaml",
				"openstack-cloud-controller-manager-roles.yaml",
				"openstack-cloud-controller-manager-role-bindings.yaml",
				"openstack-cloud-controller-manager-ds.yaml",
				"cinder-csi-controllerplugin-rbac.yaml",
				"cinder-csi-controllerplugin.yaml",
				"cinder-csi-nodeplugin-rbac.yaml",
				"cinder-csi-nodeplugin.yaml",
				"csi-cinder-driver.yaml",
			),
				storageClass("storageclass-cinder.yaml", "cinder", nil),
			),
		},
		{
			Name:      CategoryAWS,
			Enabled:   flagEnabled("enable-aws"),
			Templates: []Template{storageClass("storageclass-aws.yaml", "ebs", nil)},
		},
		{
			Name:      CategoryAzure,
			Enabled:   flagEnabled("enable-azure"),
			Templates: []Template{storageClass("storageclass-azure.yaml", "azure-disk", nil)},
		},
		{
			Name:      CategoryGCP,
			Enabled:   flagEnabled("enable-gcp"),
			Templates: []Template{storageClass("storageclass-gcp.yaml", "gce-pd", nil)},
		},
	}
}
