package handlers

import (
	"github.com/rohanthewiz/element"
	"github.com/rohanthewiz/rweb"
)

// dashboardHandler serves the single-page dashboard: plan list,
// roadmap with badges, chat box, and upcoming calendar events.
func (a *API) dashboardHandler(c rweb.Context) error {
	return c.WriteHTML(generateDashboard())
}

func generateDashboard() string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Title().T("Waypoint"),
			b.Meta("charset", "UTF-8"),
			b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1.0"),
			b.Style().T(dashboardCSS),
		),
		b.Body().R(
			b.Div("id", "app").R(
				b.Header().R(
					b.H1().T("Waypoint"),
					b.A("href", "/auth/google/start", "class", "btn-secondary").T("Connect Google Calendar"),
				),
				b.Main().R(
					b.Aside("id", "sidebar").R(
						b.Div("class", "sidebar-header").R(
							b.H3().T("Plans"),
							b.Button("id", "new-plan-btn", "class", "btn-primary").T("New Plan"),
						),
						b.Div("id", "plan-list").R(),
					),
					b.Section("id", "plan-area").R(
						b.Div("id", "roadmap").R(),
						b.Div("id", "chat").R(
							b.Div("id", "chat-messages").R(),
							b.Div("class", "input-area").R(
								b.Input("id", "chat-input", "type", "text",
									"placeholder", "Tell Polaris how it's going..."),
								b.Button("id", "send-btn", "class", "btn-primary").T("Send"),
							),
						),
					),
					b.Aside("id", "calendar").R(
						b.H3().T("Upcoming"),
						b.Div("id", "event-list").R(),
					),
				),
			),
			b.Script().T(dashboardJS),
		),
	)

	return b.String()
}

const dashboardCSS = `
body { margin: 0; font-family: system-ui, sans-serif; background: #f6f7f9; color: #1d2129; }
header { display: flex; justify-content: space-between; align-items: center; padding: 0.5rem 1rem; background: #fff; border-bottom: 1px solid #e3e6ea; }
main { display: grid; grid-template-columns: 240px 1fr 260px; gap: 1rem; padding: 1rem; }
#sidebar, #plan-area, #calendar { background: #fff; border: 1px solid #e3e6ea; border-radius: 8px; padding: 1rem; }
.sidebar-header { display: flex; justify-content: space-between; align-items: center; }
.plan-item { padding: 0.5rem; border-radius: 6px; cursor: pointer; }
.plan-item:hover { background: #eef1f5; }
.task { padding: 0.4rem 0.6rem; margin: 0.25rem 0; border-left: 3px solid #cbd2d9; }
.task.active { border-left-color: #2c7be5; background: #f0f6ff; }
.task.completed { border-left-color: #27ae60; color: #7b8794; text-decoration: line-through; }
.task.locked { opacity: 0.6; }
#chat-messages { height: 260px; overflow-y: auto; border-top: 1px solid #e3e6ea; margin-top: 1rem; padding-top: 0.5rem; }
.msg { margin: 0.3rem 0; padding: 0.4rem 0.7rem; border-radius: 10px; max-width: 75%; white-space: pre-wrap; }
.msg.user { background: #2c7be5; color: #fff; margin-left: auto; }
.msg.assistant { background: #eef1f5; }
.input-area { display: flex; gap: 0.5rem; margin-top: 0.5rem; }
#chat-input { flex: 1; padding: 0.4rem; }
.btn-primary { background: #2c7be5; color: #fff; border: none; border-radius: 6px; padding: 0.4rem 0.8rem; cursor: pointer; }
.btn-secondary { color: #2c7be5; text-decoration: none; font-size: 0.9rem; }
`

const dashboardJS = `
let currentPlanId = null;

async function api(path, opts) {
  const res = await fetch(path, Object.assign({headers: {"Content-Type": "application/json"}}, opts));
  return res.json();
}

async function loadPlans() {
  const plans = await api("/api/plan");
  const list = document.getElementById("plan-list");
  list.innerHTML = "";
  for (const p of plans) {
    const div = document.createElement("div");
    div.className = "plan-item";
    div.textContent = p.goal + " (" + p.state + ")";
    div.onclick = () => selectPlan(p.id);
    list.appendChild(div);
  }
}

async function selectPlan(id) {
  currentPlanId = id;
  const data = await api("/api/plan/" + id);
  const roadmap = document.getElementById("roadmap");
  roadmap.innerHTML = "<h3>" + data.plan.goal + " &mdash; " + data.completed + "/" + data.total + "</h3>";
  for (const t of data.tasks) {
    const div = document.createElement("div");
    div.className = "task " + t.badge;
    div.textContent = t.orderIndex + ". " + t.title;
    roadmap.appendChild(div);
  }
  await loadChat();
}

async function loadChat() {
  const messages = await api("/api/plan/" + currentPlanId + "/chat");
  const box = document.getElementById("chat-messages");
  box.innerHTML = "";
  for (const m of messages) addMsg(m.role, m.content);
}

function addMsg(role, content) {
  const box = document.getElementById("chat-messages");
  const div = document.createElement("div");
  div.className = "msg " + role;
  div.textContent = content;
  box.appendChild(div);
  box.scrollTop = box.scrollHeight;
}

async function sendMessage() {
  const input = document.getElementById("chat-input");
  const text = input.value.trim();
  if (!text || !currentPlanId) return;
  input.value = "";
  addMsg("user", text);
  const data = await api("/api/plan/" + currentPlanId + "/chat", {
    method: "POST",
    body: JSON.stringify({message: text}),
  });
  const reply = data.reply;
  addMsg("assistant", reply.message);
  if (reply.type === "PROPOSE_TASK_COMPLETION" && confirm(reply.message)) {
    await api("/api/plan/" + currentPlanId + "/task/" + reply.taskId + "/complete", {
      method: "POST",
      body: JSON.stringify({triggeredByChatId: String(data.assistantChatId)}),
    });
    await selectPlan(currentPlanId);
  }
  if (reply.type === "PROPOSE_CREATE_CALENDAR_EVENT" && confirm(reply.message)) {
    await api("/api/plan/" + currentPlanId + "/calendar/event", {
      method: "POST",
      body: JSON.stringify(Object.assign({triggeredByChatId: String(data.assistantChatId)}, reply.payload)),
    });
    await loadEvents();
  }
}

async function createPlan() {
  const goal = prompt("What is your goal?");
  if (!goal) return;
  const months = parseInt(prompt("Duration in months?", "3"), 10) || 3;
  const status = prompt("Where are you starting from?", "Beginner") || "Beginner";
  const plan = await api("/api/plan", {
    method: "POST",
    body: JSON.stringify({goal: goal, durationMonths: months, currentStatus: status}),
  });
  await api("/api/plan/" + plan.id + "/roadmap", {
    method: "POST",
    body: JSON.stringify({goal: goal, durationMonths: months, currentStatus: status}),
  });
  await loadPlans();
  await selectPlan(plan.id);
}

async function loadEvents() {
  const data = await api("/api/calendar/events");
  const list = document.getElementById("event-list");
  list.innerHTML = "";
  for (const ev of data.events) {
    const div = document.createElement("div");
    div.textContent = ev.start + " " + ev.title;
    list.appendChild(div);
  }
}

document.getElementById("send-btn").onclick = sendMessage;
document.getElementById("chat-input").onkeypress = (e) => { if (e.key === "Enter") sendMessage(); };
document.getElementById("new-plan-btn").onclick = createPlan;

loadPlans();
loadEvents();
`
