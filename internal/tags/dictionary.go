package tags

// Topic maps a suggested tag to the lower-case phrases that imply it.
type Topic struct {
	Tag     string
	Phrases []string
}

// Category is one of the fixed sidebar buckets.
type Category string

const (
	CategoryFrontend Category = "Frontend"
	CategoryBackend  Category = "Backend"
	CategoryDatabase Category = "Database"
	CategoryDevOps   Category = "DevOps"
	CategoryMobile   Category = "Mobile"
	CategoryOther    Category = "Other"
)

// CategoryRule lists the keywords that place a tag into a category.
type CategoryRule struct {
	Name     Category
	Keywords []string
}

// DefaultTopics is the topic table used for content-based suggestions.
// Order matters: it is the order suggestions are emitted in.
var DefaultTopics = []Topic{
	{"react", []string{"react", "reactjs", "react.js", "jsx", "hooks", "usestate", "useeffect", "react 18", "react 19"}},
	{"javascript", []string{"javascript", "js", "vanilla js", "ecmascript", "es6", "es2023", "es2024"}},
	{"typescript", []string{"typescript", "ts", "type script", "typed javascript", "typescript 5"}},
	{"next.js", []string{"next.js", "nextjs", "next js", "vercel", "app router", "pages router", "next 14", "next 15"}},
	{"node.js", []string{"node.js", "nodejs", "node js", "npm", "express", "server side", "node 20"}},
	{"python", []string{"python", "django", "flask", "fastapi", "pandas", "numpy", "python 3.12"}},
	{"css", []string{"css", "stylesheet", "styles", "flexbox", "grid", "responsive", "css grid"}},
	{"html", []string{"html", "markup", "dom", "semantic", "accessibility", "html5"}},
	{"database", []string{"database", "sql", "postgresql", "mysql", "mongodb", "prisma", "query", "postgres"}},
	{"authentication", []string{"auth", "authentication", "login", "signup", "jwt", "session", "oauth", "auth0"}},
	{"api", []string{"api", "rest", "graphql", "endpoint", "fetch", "axios", "http", "rest api"}},
	{"tailwind", []string{"tailwind", "tailwindcss", "utility classes", "responsive design", "tailwind v3"}},
	{"supabase", []string{"supabase", "realtime", "row level security", "rls", "supabase auth"}},
	{"firebase", []string{"firebase", "firestore", "firebase auth", "firebase v9"}},
	{"deployment", []string{"deploy", "deployment", "hosting", "vercel", "netlify", "heroku", "aws"}},
	{"testing", []string{"test", "testing", "jest", "cypress", "unit test", "integration", "vitest"}},
	{"performance", []string{"performance", "optimization", "lazy loading", "caching", "speed", "lighthouse"}},
	{"security", []string{"security", "xss", "csrf", "sanitization", "validation", "cybersecurity"}},
	{"mobile", []string{"mobile", "responsive", "react native", "ios", "android", "pwa"}},
	{"state management", []string{"state", "redux", "zustand", "context", "global state", "redux toolkit"}},
	{"styling", []string{"styling", "styled components", "emotion", "sass", "less", "css modules"}},
	{"forms", []string{"form", "validation", "input", "form handling", "react hook form", "formik"}},
	{"routing", []string{"routing", "router", "navigation", "routes", "link", "react router"}},
	{"error handling", []string{"error", "exception", "try catch", "error boundary", "debugging"}},
	{"data fetching", []string{"fetch", "axios", "swr", "react query", "tanstack query", "rtk query"}},
	{"build tools", []string{"webpack", "vite", "rollup", "esbuild", "bundler", "turbopack"}},
	{"git", []string{"git", "github", "version control", "merge", "branch", "gitlab"}},
	{"ai", []string{"ai", "artificial intelligence", "machine learning", "chatgpt", "openai", "llm"}},
	{"web3", []string{"web3", "blockchain", "crypto", "ethereum", "solidity", "defi"}},
	{"microservices", []string{"microservices", "docker", "kubernetes", "containerization", "k8s"}},
	{"serverless", []string{"serverless", "lambda", "cloudflare workers", "edge functions", "vercel functions"}},
	{"vue.js", []string{"vue", "vuejs", "vue.js", "vue 3", "composition api", "nuxt"}},
	{"angular", []string{"angular", "angularjs", "typescript angular", "angular 17", "rxjs"}},
	{"svelte", []string{"svelte", "sveltekit", "svelte 4", "svelte 5", "runes"}},
	{"websockets", []string{"websocket", "real-time", "socket.io", "sse", "live updates"}},
	{"graphql", []string{"graphql", "apollo", "relay", "graphql api", "hasura"}},
	{"monitoring", []string{"monitoring", "logging", "analytics", "sentry", "datadog"}},
	{"devops", []string{"devops", "ci/cd", "github actions", "pipeline", "automation"}},
}

// DefaultHeuristics are phrasing cues checked after the topic table, in order.
var DefaultHeuristics = []Topic{
	{"tutorial", []string{"how to", "how do i", "tutorial"}},
	{"debugging", []string{"error", "problem", "issue", "bug"}},
	{"best practices", []string{"best practice", "recommendation", "advice"}},
	{"beginner", []string{"beginner", "new to", "learning"}},
}

// DefaultCategories are tested in priority order; Other is implicit.
var DefaultCategories = []CategoryRule{
	{CategoryFrontend, []string{"react", "vue.js", "angular", "svelte", "javascript", "typescript", "css", "html", "tailwind"}},
	{CategoryBackend, []string{"node.js", "python", "api", "serverless", "microservices", "authentication"}},
	{CategoryDatabase, []string{"database", "sql", "mongodb", "postgresql", "mysql"}},
	{CategoryDevOps, []string{"deployment", "docker", "kubernetes", "ci/cd", "monitoring", "devops"}},
	{CategoryMobile, []string{"mobile", "react native", "ios", "android", "pwa"}},
}

// PopularTags is offered on the ask form and when no trend data exists yet.
var PopularTags = []string{
	"react", "javascript", "typescript", "next.js", "node.js", "python",
	"html", "css", "tailwind", "database", "api", "authentication",
}
