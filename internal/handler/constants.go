package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot     = "/"
	RouteHealth   = "/health"
	RouteAbout    = "/about"
	RouteProjects = "/projects"
	RouteProject  = "/projects/{slug}"
	RouteContact  = "/contact"
	RouteRobots   = "/robots.txt"
	RouteSitemap  = "/sitemap.xml"

	RouteAdmin          = "/admin"
	RouteLogin          = "/admin/login"
	RouteLogout         = "/admin/logout"
	RouteForgotPassword = "/admin/forgot-password"
	RouteSettings       = "/admin/settings"
	RouteLeads          = "/admin/leads"
	RouteLeadDelete     = "/admin/leads/{id}/delete"

	RouteAdminProjects = "/admin/projects"
	RouteProjectNew    = "/admin/projects/new"
	RouteProjectEdit   = "/admin/projects/{slug}/edit"
	RouteProjectDelete = "/admin/projects/{slug}/delete"

	RouteContentHome     = "/admin/content/homepage"
	RouteContentAbout    = "/admin/content/about"
	RouteContentProjects = "/admin/content/projects-page"
	RouteContentContact  = "/admin/content/contact-page"
)

// Redirect targets.
const (
	redirectAdmin         = RouteAdmin
	redirectAdminProjects = RouteAdminProjects
	redirectLeads         = RouteLeads
)

// Upload limits for the project form.
const (
	// maxProjectFormSize bounds the whole multipart body.
	maxProjectFormSize = 100 << 20
	// maxFormMemory is kept in memory; the rest spills to temp files.
	maxFormMemory = 32 << 20
)
